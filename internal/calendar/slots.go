package calendar

import (
	"sort"
	"time"
)

// Working hours used for availability suggestions.
const (
	workdayStartHour = 9
	workdayEndHour   = 18
)

// Slot is a half-open [Start, End) interval.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the slot length.
func (s Slot) Duration() time.Duration { return s.End.Sub(s.Start) }

// freeGaps computes the gaps between busy intervals inside [dayStart, dayEnd)
// that are at least minLength long. Busy intervals may overlap and arrive in
// any order.
func freeGaps(busy []Slot, dayStart, dayEnd time.Time, minLength time.Duration) []Slot {
	if minLength <= 0 {
		minLength = 30 * time.Minute
	}

	merged := mergeBusy(busy, dayStart, dayEnd)

	var free []Slot
	cursor := dayStart
	for _, b := range merged {
		if b.Start.Sub(cursor) >= minLength {
			free = append(free, Slot{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if dayEnd.Sub(cursor) >= minLength {
		free = append(free, Slot{Start: cursor, End: dayEnd})
	}
	return free
}

// mergeBusy clamps intervals to the day window, drops empty ones, and merges
// overlaps into a sorted disjoint set.
func mergeBusy(busy []Slot, dayStart, dayEnd time.Time) []Slot {
	clamped := make([]Slot, 0, len(busy))
	for _, b := range busy {
		if b.Start.Before(dayStart) {
			b.Start = dayStart
		}
		if b.End.After(dayEnd) {
			b.End = dayEnd
		}
		if b.End.After(b.Start) {
			clamped = append(clamped, b)
		}
	}
	sort.Slice(clamped, func(i, j int) bool { return clamped[i].Start.Before(clamped[j].Start) })

	var merged []Slot
	for _, b := range clamped {
		if n := len(merged); n > 0 && !b.Start.After(merged[n-1].End) {
			if b.End.After(merged[n-1].End) {
				merged[n-1].End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

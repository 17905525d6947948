// Package calendar is the opaque capability the core hands a valid access
// token to. Event semantics live with Google; this layer only translates.
package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const primaryCalendar = "primary"

// Event is the thin cross-layer view of a calendar entry.
type Event struct {
	ID        string    `json:"id,omitempty"`
	Summary   string    `json:"summary"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Attendees []string  `json:"attendees,omitempty"`
	Link      string    `json:"link,omitempty"`
}

// Service wraps the Calendar API for one access token.
type Service struct {
	svc *gcal.Service
}

// New builds a service around a bearer token obtained from the token ledger.
func New(ctx context.Context, accessToken string) (*Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gcal.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("init calendar client: %w", err)
	}
	return &Service{svc: svc}, nil
}

// ListUpcoming returns the next max events on the primary calendar.
func (s *Service) ListUpcoming(ctx context.Context, max int64) ([]Event, error) {
	if max <= 0 {
		max = 10
	}
	resp, err := s.svc.Events.List(primaryCalendar).
		Context(ctx).
		TimeMin(time.Now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(max).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, fromAPIEvent(item))
	}
	return events, nil
}

// CreateEvent inserts an event on the primary calendar and returns it with
// the server-assigned id and link.
func (s *Service) CreateEvent(ctx context.Context, ev Event, description string) (Event, error) {
	apiEvent := &gcal.Event{
		Summary:     ev.Summary,
		Description: description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}
	for _, email := range ev.Attendees {
		apiEvent.Attendees = append(apiEvent.Attendees, &gcal.EventAttendee{Email: email})
	}

	created, err := s.svc.Events.Insert(primaryCalendar, apiEvent).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	return fromAPIEvent(created), nil
}

// FreeSlots queries busy intervals for a day and returns the gaps within
// working hours long enough for slotLength.
func (s *Service) FreeSlots(ctx context.Context, day time.Time, slotLength time.Duration) ([]Slot, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), workdayStartHour, 0, 0, 0, day.Location())
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), workdayEndHour, 0, 0, 0, day.Location())

	resp, err := s.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: dayStart.Format(time.RFC3339),
		TimeMax: dayEnd.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: primaryCalendar}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	var busy []Slot
	if cal, ok := resp.Calendars[primaryCalendar]; ok {
		for _, period := range cal.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				continue
			}
			busy = append(busy, Slot{Start: start, End: end})
		}
	}
	return freeGaps(busy, dayStart, dayEnd, slotLength), nil
}

func fromAPIEvent(item *gcal.Event) Event {
	ev := Event{
		ID:      item.Id,
		Summary: item.Summary,
		Link:    item.HtmlLink,
	}
	if item.Start != nil {
		ev.Start = parseEventTime(item.Start)
	}
	if item.End != nil {
		ev.End = parseEventTime(item.End)
	}
	for _, a := range item.Attendees {
		ev.Attendees = append(ev.Attendees, a.Email)
	}
	return ev
}

// parseEventTime handles both timed and all-day events.
func parseEventTime(edt *gcal.EventDateTime) time.Time {
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

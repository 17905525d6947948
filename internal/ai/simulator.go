package ai

import "context"

// Simulator is the offline backend: deterministic canned replies keyed by
// intent, always ready, never fails. It is both a selectable provider and
// the router's fallback when a live backend is unreachable.
type Simulator struct{}

// NewSimulator returns the offline provider.
func NewSimulator() *Simulator { return &Simulator{} }

var simulatedReplies = map[Intent]string{
	IntentSchedule: "I'd be happy to help you schedule a meeting! Please share the " +
		"title, date, time, duration, and attendees, and I'll set it up in your calendar.",
	IntentAvailability: "I can help you check your availability. Based on your calendar " +
		"you have several free slots this week - would you like me to list specific times?",
	IntentListing: "Here's a look at your calendar. I can show upcoming events or a " +
		"specific day - just tell me which.",
	IntentGeneral: "Hello! I'm your calendar assistant. I can schedule meetings, check " +
		"availability, and show your upcoming events. What would you like to do?",
}

func (s *Simulator) ID() string { return ProviderSimulator }

func (s *Simulator) Ready() bool { return true }

func (s *Simulator) Respond(_ context.Context, message string, _ []Turn) (*Reply, error) {
	intent, confidence := ClassifyIntent(message)
	return &Reply{
		Text:       simulatedReplies[intent],
		Intent:     intent,
		Confidence: confidence,
	}, nil
}

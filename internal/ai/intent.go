package ai

import "strings"

// Intent is the coarse request class inferred from a chat message. It is
// deliberately simple keyword matching shared by every provider variant, not
// per-provider NLU: the assistant's structured extraction lives elsewhere.
type Intent string

const (
	IntentSchedule     Intent = "schedule"
	IntentAvailability Intent = "availability"
	IntentListing      Intent = "listing"
	IntentGeneral      Intent = "general"
)

const (
	keywordConfidence = 0.9
	generalConfidence = 0.5
)

// Keyword classes checked in order; first hit wins.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentSchedule, []string{"schedule", "meeting", "book", "create", "appointment"}},
	{IntentAvailability, []string{"availability", "available", "free", "busy"}},
	{IntentListing, []string{"show", "view", "list", "events", "calendar"}},
}

// ClassifyIntent maps a message to an intent with a rough confidence.
func ClassifyIntent(message string) (Intent, float64) {
	lower := strings.ToLower(message)
	for _, class := range intentKeywords {
		for _, kw := range class.keywords {
			if strings.Contains(lower, kw) {
				return class.intent, keywordConfidence
			}
		}
	}
	return IntentGeneral, generalConfidence
}

// Package ai routes chat requests over interchangeable conversational
// backends with deterministic fallback to an offline simulator.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// systemPrompt frames every live backend as a scheduling assistant.
const systemPrompt = "You are an AI assistant specialized in scheduling appointments using Google Calendar. " +
	"Help users schedule meetings by gathering required information (title, date, time, duration, attendees) " +
	"and providing clear, helpful, professional responses."

const (
	// historyWindow bounds how much conversation context is sent upstream.
	historyWindow = 10

	// defaultCallTimeout bounds a single upstream call.
	defaultCallTimeout = 60 * time.Second
)

// Turn is one entry of the conversation history.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Reply is a provider's answer to one message.
type Reply struct {
	Text       string  `json:"text"`
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Provider is the capability every backend variant implements. Ready reports
// whether the variant has what it needs to attempt a call; Respond never
// panics and wraps every upstream failure as a *ProviderError.
type Provider interface {
	ID() string
	Ready() bool
	Respond(ctx context.Context, message string, history []Turn) (*Reply, error)
}

// Prober is implemented by live variants that can cheaply validate a
// credential without being made active.
type Prober interface {
	Probe(ctx context.Context) error
}

// Reason classifies an upstream failure so the router can react uniformly
// regardless of which backend failed.
type Reason string

const (
	ReasonRateLimited       Reason = "rate-limited"
	ReasonInvalidCredential Reason = "invalid-credential"
	ReasonQuotaExceeded     Reason = "quota-exceeded"
	ReasonNotReady          Reason = "not-ready"
	ReasonUnknown           Reason = "unknown"
)

// ProviderError is the single error shape live variants surface.
type ProviderError struct {
	Provider string
	Reason   Reason
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed (%s): %v", e.Provider, e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// classifyStatus maps an upstream HTTP status (plus its message, for the
// 429 quota-vs-rate ambiguity) onto a Reason.
func classifyStatus(status int, message string) Reason {
	switch status {
	case 401, 403:
		return ReasonInvalidCredential
	case 429:
		lower := strings.ToLower(message)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return ReasonQuotaExceeded
		}
		return ReasonRateLimited
	default:
		return ReasonUnknown
	}
}

// recentHistory returns the most recent n turns.
func recentHistory(history []Turn, n int) []Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

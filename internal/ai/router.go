package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrUnknownProvider is returned by Select for ids outside the catalog.
var ErrUnknownProvider = errors.New("unknown provider")

// ChatResult is what callers branch on: a reply plus fallback metadata, never
// an error. A degraded turn carries UsedFallback and the original failure
// reason so the UI can show an "offline assistant" indicator.
type ChatResult struct {
	Reply
	Provider       string `json:"provider"`
	UsedFallback   bool   `json:"used_fallback"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// Factory constructs a provider instance for a catalog entry. Swappable in
// tests.
type Factory func(cfg ProviderConfig, credential, model string) Provider

func defaultFactory(cfg ProviderConfig, credential, model string) Provider {
	switch cfg.ID {
	case ProviderOpenAI:
		return NewOpenAI(credential, model)
	case ProviderGemini:
		return NewGemini(credential, model)
	case ProviderClaude:
		return NewClaude(credential, model)
	default:
		return NewSimulator()
	}
}

// Router holds the active provider selection and wraps every chat call with
// fallback to the simulator. Selection is the only mutable state and sits
// behind one lock.
type Router struct {
	catalog *Catalog
	factory Factory
	sim     *Simulator

	mu       sync.RWMutex
	active   Provider
	activeID string
}

// NewRouter starts with the simulator active so Chat always has somewhere
// to go.
func NewRouter(catalog *Catalog) *Router {
	sim := NewSimulator()
	return &Router{
		catalog:  catalog,
		factory:  defaultFactory,
		sim:      sim,
		active:   sim,
		activeID: ProviderSimulator,
	}
}

// Select makes providerID active, replacing any previous instance. Selecting
// the same provider again just swaps in the new credential/model. Switching
// never touches conversation history, which is owned by the caller.
func (r *Router) Select(providerID, credential, model string) error {
	cfg, ok := r.catalog.Get(providerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, providerID)
	}
	p := r.factory(cfg, credential, model)

	r.mu.Lock()
	r.active = p
	r.activeID = cfg.ID
	r.mu.Unlock()

	log.Info().Str("provider", cfg.ID).Msg("active provider selected")
	return nil
}

// Active returns the id of the currently selected provider.
func (r *Router) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Catalog exposes the static provider catalog.
func (r *Router) Catalog() []ProviderConfig {
	return r.catalog.List()
}

// ValidateCredential probes a backend with the given credential without
// making it active. Used before persisting a credential.
func (r *Router) ValidateCredential(ctx context.Context, providerID, credential string) bool {
	cfg, ok := r.catalog.Get(providerID)
	if !ok {
		return false
	}
	if !cfg.RequiresCredential {
		return true
	}
	p := r.factory(cfg, credential, "")
	if !p.Ready() {
		return false
	}
	if prober, ok := p.(Prober); ok {
		if err := prober.Probe(ctx); err != nil {
			log.Warn().Err(err).Str("provider", providerID).Msg("credential probe failed")
			return false
		}
	}
	return true
}

// Chat delegates to the active provider and substitutes the simulator on any
// failure: provider absent, not ready, or erroring. The caller never sees a
// failed turn, only a degraded one. The fallback receives exactly the same
// message and history the failing provider did.
func (r *Router) Chat(ctx context.Context, message string, history []Turn) *ChatResult {
	r.mu.RLock()
	p, id := r.active, r.activeID
	r.mu.RUnlock()

	if p == nil {
		return r.fallback(ctx, message, history, string(ReasonNotReady))
	}
	if !p.Ready() {
		log.Warn().Str("provider", id).Msg("active provider not ready, using simulator")
		return r.fallback(ctx, message, history, string(ReasonInvalidCredential))
	}

	reply, err := p.Respond(ctx, message, history)
	if err != nil {
		reason := ReasonUnknown
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			reason = provErr.Reason
		}
		log.Warn().Err(err).Str("provider", id).Str("reason", string(reason)).Msg("provider call failed, using simulator")
		return r.fallback(ctx, message, history, string(reason))
	}

	return &ChatResult{Reply: *reply, Provider: id}
}

func (r *Router) fallback(ctx context.Context, message string, history []Turn, reason string) *ChatResult {
	reply, _ := r.sim.Respond(ctx, message, history)
	return &ChatResult{
		Reply:          *reply,
		Provider:       ProviderSimulator,
		UsedFallback:   true,
		FallbackReason: reason,
	}
}

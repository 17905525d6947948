package server

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/ai"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/oauth"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/token"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/logging"
)

// Routes assembles the full HTTP surface over the given dependencies.
func Routes(coord *oauth.Coordinator, ledger *token.Ledger, router *ai.Router) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(logging.RequestLogger)

	// OAuth flow
	r.Get("/auth/google/login", HandleLogin(coord))
	r.Get("/auth/google/callback", HandleCallback(coord, ledger))
	r.Post("/auth/google/disconnect", HandleDisconnect(coord, ledger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", ChatHandler(router, ledger, coord))

		r.Get("/providers", ProvidersHandler(router))
		r.Post("/providers", SelectProviderHandler(router))
		r.Post("/providers/validate", ValidateCredentialHandler(router))

		r.Get("/status", StatusHandler(coord, ledger, router))

		r.Get("/calendar/events", ListEventsHandler(ledger, coord))
		r.Post("/calendar/events", CreateEventHandler(ledger, coord))
		r.Get("/calendar/availability", AvailabilityHandler(ledger, coord))
	})

	return r
}

// Package server exposes the HTTP surface: the OAuth handshake endpoints,
// the chat API, provider management, and calendar access.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/ai"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/oauth"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/token"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/calendar"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/util"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/version"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleLogin starts the OAuth handshake by redirecting to the consent page.
func HandleLogin(coord *oauth.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID(w, r)
		authURL, _, err := coord.AuthorizationURL()
		if err != nil {
			if err == oauth.ErrNotConfigured {
				writeError(w, http.StatusServiceUnavailable, "google oauth is not configured")
				return
			}
			writeError(w, http.StatusInternalServerError, "could not start authorization")
			return
		}
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	}
}

// HandleCallback finishes the handshake: verifies state, exchanges the code,
// and stores the encrypted bundle under the caller's session.
func HandleCallback(coord *oauth.Coordinator, ledger *token.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			writeError(w, http.StatusBadRequest, "authorization denied: "+errMsg)
			return
		}
		code := r.URL.Query().Get("code")
		stateToken := r.URL.Query().Get("state")
		if code == "" || stateToken == "" {
			writeError(w, http.StatusBadRequest, "missing code or state")
			return
		}

		bundle, err := coord.ExchangeCode(r.Context(), code, stateToken)
		if err != nil {
			switch err {
			case oauth.ErrInvalidState:
				writeError(w, http.StatusBadRequest, "invalid state token, restart the connection")
			case oauth.ErrNotConfigured:
				writeError(w, http.StatusServiceUnavailable, "google oauth is not configured")
			default:
				log.Error().Err(err).Msg("code exchange failed")
				writeError(w, http.StatusBadGateway, "token exchange failed")
			}
			return
		}

		owner := sessionID(w, r)
		if !ledger.Store(owner, bundle) {
			writeError(w, http.StatusInternalServerError, "could not persist credentials")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<!DOCTYPE html>
<html><head><title>Calendar connected</title></head>
<body><h2>Calendar connected</h2>
<p>You can close this window and return to the assistant.</p>
</body></html>`))
	}
}

// HandleDisconnect revokes the stored token and drops the record.
func HandleDisconnect(coord *oauth.Coordinator, ledger *token.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := sessionID(w, r)
		if bundle, ok := ledger.Retrieve(owner); ok {
			coord.Revoke(r.Context(), bundle.AccessToken)
		}
		ledger.Delete(owner)
		writeJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
	}
}

type chatRequest struct {
	Message    string    `json:"message"`
	History    []ai.Turn `json:"history"`
	Provider   string    `json:"provider,omitempty"`
	Credential string    `json:"credential,omitempty"`
	Model      string    `json:"model,omitempty"`
}

type chatResponse struct {
	Text              string    `json:"text"`
	Intent            ai.Intent `json:"intent"`
	Confidence        float64   `json:"confidence"`
	Provider          string    `json:"provider"`
	UsedFallback      bool      `json:"used_fallback"`
	FallbackReason    string    `json:"fallback_reason,omitempty"`
	CalendarConnected bool      `json:"calendar_connected"`
}

// ChatHandler runs one conversation turn. An optional provider override in
// the request switches the active backend before responding.
func ChatHandler(router *ai.Router, ledger *token.Ledger, coord *oauth.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		if req.Provider != "" && req.Provider != router.Active() {
			if err := router.Select(req.Provider, req.Credential, req.Model); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		owner := sessionID(w, r)
		_, connected := ledger.RefreshIfNeeded(r.Context(), owner, coord)

		result := router.Chat(r.Context(), req.Message, req.History)
		log.Info().
			Str("provider", result.Provider).
			Str("intent", string(result.Intent)).
			Bool("fallback", result.UsedFallback).
			Str("message", util.TruncateLog(req.Message, util.DefaultLogMaxLen)).
			Msg("chat turn")

		writeJSON(w, http.StatusOK, chatResponse{
			Text:              result.Text,
			Intent:            result.Intent,
			Confidence:        result.Confidence,
			Provider:          result.Provider,
			UsedFallback:      result.UsedFallback,
			FallbackReason:    result.FallbackReason,
			CalendarConnected: connected,
		})
	}
}

// ProvidersHandler lists the provider catalog and the active selection.
func ProvidersHandler(router *ai.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"providers": router.Catalog(),
			"active":    router.Active(),
		})
	}
}

type selectRequest struct {
	Provider   string `json:"provider"`
	Credential string `json:"credential,omitempty"`
	Model      string `json:"model,omitempty"`
}

// SelectProviderHandler makes a catalog provider active.
func SelectProviderHandler(router *ai.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := router.Select(req.Provider, req.Credential, req.Model); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"active": router.Active()})
	}
}

// ValidateCredentialHandler probes a backend with a credential without
// changing the active selection.
func ValidateCredentialHandler(router *ai.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		valid := router.ValidateCredential(r.Context(), req.Provider, req.Credential)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"provider": req.Provider,
			"valid":    valid,
		})
	}
}

// StatusHandler reports service health for the UI: oauth configuration,
// calendar connection, and the active provider.
func StatusHandler(coord *oauth.Coordinator, ledger *token.Ledger, router *ai.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := sessionID(w, r)
		connected := false
		var email string
		if bundle, ok := ledger.Retrieve(owner); ok {
			connected = ledger.IsValid(bundle) || bundle.RefreshToken != ""
			if bundle.UserInfo != nil {
				email = bundle.UserInfo.Email
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"oauth_configured":   coord.Configured(),
			"calendar_connected": connected,
			"account_email":      email,
			"active_provider":    router.Active(),
			"version":            version.Version,
		})
	}
}

// calendarToken resolves a usable access token for the session or writes the
// re-auth response.
func calendarToken(w http.ResponseWriter, r *http.Request, ledger *token.Ledger, coord *oauth.Coordinator) (string, bool) {
	owner := sessionID(w, r)
	bundle, ok := ledger.RefreshIfNeeded(r.Context(), owner, coord)
	if !ok {
		writeError(w, http.StatusUnauthorized, "reconnect your calendar")
		return "", false
	}
	return bundle.AccessToken, true
}

// ListEventsHandler returns upcoming events on the primary calendar.
func ListEventsHandler(ledger *token.Ledger, coord *oauth.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := calendarToken(w, r, ledger, coord)
		if !ok {
			return
		}
		svc, err := calendar.New(r.Context(), accessToken)
		if err != nil {
			writeError(w, http.StatusBadGateway, "calendar client unavailable")
			return
		}

		max := int64(10)
		if v := r.URL.Query().Get("max"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				max = n
			}
		}
		events, err := svc.ListUpcoming(r.Context(), max)
		if err != nil {
			log.Warn().Err(err).Msg("list events failed")
			writeError(w, http.StatusBadGateway, "could not list events")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
	}
}

type createEventRequest struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees,omitempty"`
}

// CreateEventHandler inserts an event on the primary calendar.
func CreateEventHandler(ledger *token.Ledger, coord *oauth.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Summary == "" {
			writeError(w, http.StatusBadRequest, "summary is required")
			return
		}
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be RFC3339")
			return
		}
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be RFC3339")
			return
		}
		if !end.After(start) {
			writeError(w, http.StatusBadRequest, "end must be after start")
			return
		}

		accessToken, ok := calendarToken(w, r, ledger, coord)
		if !ok {
			return
		}
		svc, err := calendar.New(r.Context(), accessToken)
		if err != nil {
			writeError(w, http.StatusBadGateway, "calendar client unavailable")
			return
		}

		created, err := svc.CreateEvent(r.Context(), calendar.Event{
			Summary:   req.Summary,
			Start:     start,
			End:       end,
			Attendees: req.Attendees,
		}, req.Description)
		if err != nil {
			log.Warn().Err(err).Msg("create event failed")
			writeError(w, http.StatusBadGateway, "could not create event")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// AvailabilityHandler returns free slots within working hours for one day.
func AvailabilityHandler(ledger *token.Ledger, coord *oauth.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := time.Now()
		if v := r.URL.Query().Get("date"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
				return
			}
			day = parsed
		}
		slotLength := 30 * time.Minute
		if v := r.URL.Query().Get("duration"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				slotLength = time.Duration(n) * time.Minute
			}
		}

		accessToken, ok := calendarToken(w, r, ledger, coord)
		if !ok {
			return
		}
		svc, err := calendar.New(r.Context(), accessToken)
		if err != nil {
			writeError(w, http.StatusBadGateway, "calendar client unavailable")
			return
		}

		slots, err := svc.FreeSlots(r.Context(), day, slotLength)
		if err != nil {
			log.Warn().Err(err).Msg("availability query failed")
			writeError(w, http.StatusBadGateway, "could not query availability")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"date":  day.Format("2006-01-02"),
			"slots": slots,
		})
	}
}

package server

import (
	"net/http"

	"github.com/google/uuid"
)

const sessionCookie = "agentcal_session"

// sessionID returns the caller's session identifier, minting a cookie on
// first contact. The id keys token records in the ledger.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

package token

import "time"

// UserInfo is the profile attached to a bundle after a successful exchange.
type UserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Bundle is one grant's worth of OAuth credentials. AccessToken is always
// present; a missing RefreshToken means the bundle cannot self-renew once
// ExpiresAt passes. Bundles are never mutated in place: refresh produces a
// replacement via Merge.
type Bundle struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	UserInfo     *UserInfo `json:"user_info,omitempty"`
}

// Valid reports whether the bundle's access token is still usable. A zero
// ExpiresAt means the remote never told us an expiry, so we assume valid.
func (b *Bundle) Valid(now time.Time) bool {
	if b == nil || b.AccessToken == "" {
		return false
	}
	return b.ExpiresAt.IsZero() || b.ExpiresAt.After(now)
}

// Merge overlays a refresh response onto the receiver and returns the
// replacement bundle. The new access token and expiry always win; the
// refresh token, user info, and scopes survive unless the response carries
// its own (RFC 6749 permits the server to omit them on refresh).
func (b *Bundle) Merge(fresh *Bundle) *Bundle {
	merged := *fresh
	if merged.RefreshToken == "" {
		merged.RefreshToken = b.RefreshToken
	}
	if merged.UserInfo == nil {
		merged.UserInfo = b.UserInfo
	}
	if len(merged.Scopes) == 0 {
		merged.Scopes = b.Scopes
	}
	return &merged
}

// Package oauth drives the Google authorization-code flow: authorization URL
// construction with CSRF state, code-for-token exchange, user-info retrieval,
// refresh, and best-effort revocation.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/state"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/token"
)

var (
	// ErrNotConfigured means client credentials are missing or placeholders.
	// Fatal for the operation, not for the process.
	ErrNotConfigured = errors.New("oauth client credentials are not configured")

	// ErrInvalidState means the CSRF check failed. The handshake must be
	// restarted from scratch; it is never retried.
	ErrInvalidState = errors.New("invalid oauth state token")
)

// ExchangeError carries the remote rejection of a token exchange or refresh.
type ExchangeError struct {
	Op   string // "exchange" or "refresh"
	Body string // remote error body, when available
	Err  error
}

func (e *ExchangeError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("token %s failed: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("token %s failed: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Default Google endpoints. Overridable in Config so tests can point the
// coordinator at local servers.
const (
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	GoogleRevokeURL   = "https://oauth2.googleapis.com/revoke"
)

// DefaultScopes covers calendar access plus the profile fields shown in the UI.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// Config holds the client registration and endpoint set for one coordinator.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
	RevokeURL   string

	// Timeout bounds every outbound call. Defaults to 15s.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.AuthURL == "" {
		c.AuthURL = GoogleAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = GoogleTokenURL
	}
	if c.UserInfoURL == "" {
		c.UserInfoURL = GoogleUserInfoURL
	}
	if c.RevokeURL == "" {
		c.RevokeURL = GoogleRevokeURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return c
}

// Coordinator runs the handshake against one client registration. The state
// store is injected so the CSRF source of truth is explicit and shared with
// nothing else.
type Coordinator struct {
	cfg    Config
	states *state.Store
	client *http.Client
}

// NewCoordinator builds a coordinator over the given state store.
func NewCoordinator(cfg Config, states *state.Store) *Coordinator {
	cfg = cfg.withDefaults()
	return &Coordinator{
		cfg:    cfg,
		states: states,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether real client credentials are present.
// Placeholder values from a copied env template count as unset.
func (c *Coordinator) Configured() bool {
	return !isPlaceholder(c.cfg.ClientID) && !isPlaceholder(c.cfg.ClientSecret)
}

func isPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(v, "your_") || strings.HasSuffix(v, "_here")
}

func (c *Coordinator) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.RedirectURL,
		Scopes:       c.cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.cfg.AuthURL,
			TokenURL: c.cfg.TokenURL,
		},
	}
}

// httpContext binds the coordinator's timeout-bearing client into ctx so the
// oauth2 transport uses it, and returns a cancel func bounding the call.
func (c *Coordinator) httpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// AuthorizationURL issues a fresh state token and returns the consent-page
// URL carrying it, with offline access and forced consent so a refresh token
// is granted.
func (c *Coordinator) AuthorizationURL() (authURL string, stateToken string, err error) {
	if !c.Configured() {
		return "", "", ErrNotConfigured
	}
	stateToken, err = c.states.Issue()
	if err != nil {
		return "", "", err
	}
	authURL = c.oauthConfig().AuthCodeURL(stateToken,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return authURL, stateToken, nil
}

// ExchangeCode verifies the callback state and exchanges the authorization
// code for a token bundle. The state check happens before any network call;
// its failure aborts the handshake. User-info retrieval is best-effort: the
// bundle is returned without profile fields when it fails.
func (c *Coordinator) ExchangeCode(ctx context.Context, code, stateToken string) (*token.Bundle, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if !c.states.Verify(stateToken) {
		return nil, ErrInvalidState
	}

	ctx, cancel := c.httpContext(ctx)
	defer cancel()

	tok, err := c.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, wrapRemoteError("exchange", err)
	}

	bundle := &token.Bundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Scopes:       append([]string(nil), c.cfg.Scopes...),
	}

	info, err := c.fetchUserInfo(ctx, tok.AccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("user info fetch failed, continuing without profile")
	} else {
		bundle.UserInfo = info
	}
	return bundle, nil
}

// Refresh trades a refresh token for a new bundle using the refresh grant.
// Absent on any non-success response; the caller decides what that means.
func (c *Coordinator) Refresh(ctx context.Context, refreshToken string) (*token.Bundle, bool) {
	if !c.Configured() || refreshToken == "" {
		return nil, false
	}

	ctx, cancel := c.httpContext(ctx)
	defer cancel()

	src := c.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		log.Warn().Err(err).Msg("token refresh rejected")
		return nil, false
	}
	return &token.Bundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, true
}

// Revoke tells the provider to invalidate a token. Best-effort: transport
// errors and non-success responses both come back as false.
func (c *Coordinator) Revoke(ctx context.Context, tok string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	form := url.Values{"token": {tok}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("token revocation failed")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Coordinator) fetchUserInfo(ctx context.Context, accessToken string) (*token.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info endpoint returned %d", resp.StatusCode)
	}

	var info token.UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// wrapRemoteError surfaces the remote error body when the oauth2 transport
// captured one.
func wrapRemoteError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &ExchangeError{Op: op, Body: string(retrieveErr.Body), Err: err}
	}
	return &ExchangeError{Op: op, Err: err}
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/ai"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/crypto"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/oauth"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/state"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/token"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]string
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]string)}
}

func (m *memStore) Put(ownerKey, ciphertext string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[ownerKey] = ciphertext
	return nil
}

func (m *memStore) Get(ownerKey string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ct, ok := m.records[ownerKey]
	return ct, ok
}

func (m *memStore) Delete(ownerKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, ownerKey)
	return nil
}

func newTestDeps(t *testing.T, oauthCfg oauth.Config) (*oauth.Coordinator, *token.Ledger, *ai.Router) {
	t.Helper()
	cipher, err := crypto.NewCipher("", "test-password")
	require.NoError(t, err)
	ledger := token.NewLedger(newMemStore(), cipher)
	coord := oauth.NewCoordinator(oauthCfg, state.NewStore(0))
	router := ai.NewRouter(ai.NewCatalog(ai.DefaultCatalog()))
	return coord, ledger, router
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestChatSimulatorTurn(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodPost, "/api/chat", map[string]interface{}{
		"message": "please schedule a meeting tomorrow",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, ai.ProviderSimulator, resp.Provider)
	assert.False(t, resp.UsedFallback)
	assert.Equal(t, ai.IntentSchedule, resp.Intent)
	assert.NotEmpty(t, resp.Text)
	assert.False(t, resp.CalendarConnected)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodPost, "/api/chat", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUnknownProviderOverride(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodPost, "/api/chat", map[string]interface{}{
		"message":  "hello",
		"provider": "nonsense",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ai.ProviderSimulator, router.Active())
}

func TestProvidersListAndSelect(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodGet, "/api/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Providers []ai.ProviderConfig `json:"providers"`
		Active    string              `json:"active"`
	}
	decodeBody(t, rec, &listing)
	assert.Equal(t, ai.ProviderSimulator, listing.Active)
	assert.Len(t, listing.Providers, 4)

	rec = doJSON(t, routes, http.MethodPost, "/api/providers", map[string]string{
		"provider":   ai.ProviderGemini,
		"credential": "test-key",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ai.ProviderGemini, router.Active())

	rec = doJSON(t, routes, http.MethodPost, "/api/providers", map[string]string{
		"provider": "nonsense",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ai.ProviderGemini, router.Active())
}

func TestValidateCredentialSimulator(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodPost, "/api/providers/validate", map[string]string{
		"provider": ai.ProviderSimulator,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Provider string `json:"provider"`
		Valid    bool   `json:"valid"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Valid)
}

func TestStatusUnconfigured(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OAuthConfigured   bool   `json:"oauth_configured"`
		CalendarConnected bool   `json:"calendar_connected"`
		ActiveProvider    string `json:"active_provider"`
	}
	decodeBody(t, rec, &resp)
	assert.False(t, resp.OAuthConfigured)
	assert.False(t, resp.CalendarConnected)
	assert.Equal(t, ai.ProviderSimulator, resp.ActiveProvider)
}

func TestLoginUnconfigured(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodGet, "/auth/google/login", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoginRedirectsToConsentPage(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/auth/google/callback",
	})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodGet, "/auth/google/login", nil)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "client_id=client-id")
	assert.Contains(t, rec.Header().Get("Location"), "state=")
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackRejectsProviderError(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodGet, "/auth/google/callback?error=access_denied", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackStoresBundle(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()
	infoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"user@example.com","name":"User"}`))
	}))
	defer infoSrv.Close()

	coord, ledger, router := newTestDeps(t, oauth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenSrv.URL,
		UserInfoURL:  infoSrv.URL,
	})
	routes := Routes(coord, ledger, router)

	_, stateToken, err := coord.AuthorizationURL()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=auth-code&state="+stateToken, nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var owner string
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			owner = c.Value
		}
	}
	require.NotEmpty(t, owner)

	bundle, ok := ledger.Retrieve(owner)
	require.True(t, ok)
	assert.Equal(t, "at-1", bundle.AccessToken)
	assert.Equal(t, "rt-1", bundle.RefreshToken)
	require.NotNil(t, bundle.UserInfo)
	assert.Equal(t, "user@example.com", bundle.UserInfo.Email)
}

func TestCalendarRequiresConnection(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodGet, "/api/calendar/events", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, "reconnect your calendar", resp["error"])
}

func TestCreateEventValidation(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	// Validation runs before the token check.
	rec := doJSON(t, routes, http.MethodPost, "/api/calendar/events", map[string]interface{}{
		"summary": "standup",
		"start":   "not-a-time",
		"end":     "2026-01-02T10:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, routes, http.MethodPost, "/api/calendar/events", map[string]interface{}{
		"summary": "standup",
		"start":   "2026-01-02T10:00:00Z",
		"end":     "2026-01-02T09:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDisconnectWithoutConnection(t *testing.T) {
	coord, ledger, router := newTestDeps(t, oauth.Config{})
	routes := Routes(coord, ledger, router)

	rec := doJSON(t, routes, http.MethodPost, "/auth/google/disconnect", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]bool
	decodeBody(t, rec, &resp)
	assert.True(t, resp["disconnected"])
}

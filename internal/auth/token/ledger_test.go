package token

import (
	"context"
	"testing"
	"time"

	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/crypto"
)

type memStore struct {
	records map[string]string
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]string)}
}

func (m *memStore) Put(ownerKey, ciphertext string) error {
	m.records[ownerKey] = ciphertext
	return nil
}

func (m *memStore) Get(ownerKey string) (string, bool) {
	c, ok := m.records[ownerKey]
	return c, ok
}

func (m *memStore) Delete(ownerKey string) error {
	delete(m.records, ownerKey)
	return nil
}

type fakeRefresher struct {
	calls  int
	bundle *Bundle
	ok     bool
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (*Bundle, bool) {
	f.calls++
	return f.bundle, f.ok
}

func newTestLedger(t *testing.T) (*Ledger, *memStore) {
	t.Helper()
	cipher, err := crypto.NewCipher("", "ledger-test-passphrase")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	store := newMemStore()
	return NewLedger(store, cipher), store
}

func TestStoreRetrieve_RoundTrip(t *testing.T) {
	ledger, store := newTestLedger(t)

	bundle := &Bundle{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
		Scopes:       []string{"calendar.readonly", "userinfo.email"},
		UserInfo:     &UserInfo{Email: "user@example.com", Name: "Test User"},
	}
	if !ledger.Store("sess-1", bundle) {
		t.Fatal("store failed")
	}

	// The persisted record must be ciphertext, never the raw token.
	raw, ok := store.Get("sess-1")
	if !ok {
		t.Fatal("expected a persisted record")
	}
	if raw == "" || raw == bundle.AccessToken {
		t.Fatal("record must not contain plaintext token")
	}

	got, ok := ledger.Retrieve("sess-1")
	if !ok {
		t.Fatal("retrieve failed")
	}
	if got.AccessToken != bundle.AccessToken || got.RefreshToken != bundle.RefreshToken {
		t.Fatalf("token mismatch: %+v", got)
	}
	if !got.ExpiresAt.Equal(bundle.ExpiresAt) {
		t.Fatalf("expiry mismatch: got %v want %v", got.ExpiresAt, bundle.ExpiresAt)
	}
	if got.UserInfo == nil || got.UserInfo.Email != "user@example.com" {
		t.Fatalf("user info mismatch: %+v", got.UserInfo)
	}
	if len(got.Scopes) != 2 {
		t.Fatalf("scopes mismatch: %v", got.Scopes)
	}
}

func TestRetrieve_UnreadableRecord(t *testing.T) {
	ledger, store := newTestLedger(t)

	store.records["sess-1"] = "bm90IHJlYWwgY2lwaGVydGV4dA=="
	if _, ok := ledger.Retrieve("sess-1"); ok {
		t.Fatal("corrupt record must read as absent")
	}
}

func TestIsValid(t *testing.T) {
	ledger, _ := newTestLedger(t)

	cases := []struct {
		name   string
		bundle *Bundle
		want   bool
	}{
		{name: "no expiry", bundle: &Bundle{AccessToken: "A"}, want: true},
		{name: "future expiry", bundle: &Bundle{AccessToken: "A", ExpiresAt: time.Now().Add(time.Hour)}, want: true},
		{name: "past expiry", bundle: &Bundle{AccessToken: "A", ExpiresAt: time.Now().Add(-time.Second)}, want: false},
		{name: "no access token", bundle: &Bundle{}, want: false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledger.IsValid(tt.bundle); got != tt.want {
				t.Fatalf("IsValid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRefreshIfNeeded_StillValid(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ref := &fakeRefresher{}

	ledger.Store("sess-1", &Bundle{AccessToken: "A", ExpiresAt: time.Now().Add(time.Hour)})
	got, ok := ledger.RefreshIfNeeded(context.Background(), "sess-1", ref)
	if !ok || got.AccessToken != "A" {
		t.Fatalf("expected stored bundle back, got (%+v, %v)", got, ok)
	}
	if ref.calls != 0 {
		t.Fatalf("valid bundle must not trigger refresh, got %d calls", ref.calls)
	}
}

func TestRefreshIfNeeded_MergePreservesRefreshTokenAndUserInfo(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ref := &fakeRefresher{
		// Renewal response omits refresh token and user info.
		bundle: &Bundle{AccessToken: "B", ExpiresAt: time.Now().Add(time.Hour)},
		ok:     true,
	}

	ledger.Store("sess-1", &Bundle{
		AccessToken:  "A",
		RefreshToken: "1//keep-me",
		ExpiresAt:    time.Now().Add(-time.Minute),
		UserInfo:     &UserInfo{Email: "user@example.com", Name: "Test User"},
	})

	got, ok := ledger.RefreshIfNeeded(context.Background(), "sess-1", ref)
	if !ok {
		t.Fatal("expected refreshed bundle")
	}
	if ref.calls != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", ref.calls)
	}
	if got.AccessToken != "B" {
		t.Fatalf("new access token must win, got %q", got.AccessToken)
	}
	if got.RefreshToken != "1//keep-me" {
		t.Fatalf("refresh token must be preserved, got %q", got.RefreshToken)
	}
	if got.UserInfo == nil || got.UserInfo.Email != "user@example.com" {
		t.Fatalf("user info must be preserved, got %+v", got.UserInfo)
	}

	// The merged bundle replaced the stored one.
	stored, ok := ledger.Retrieve("sess-1")
	if !ok || stored.AccessToken != "B" || stored.RefreshToken != "1//keep-me" {
		t.Fatalf("ledger not updated with merged bundle: %+v", stored)
	}
}

func TestRefreshIfNeeded_NoRefreshToken(t *testing.T) {
	ledger, store := newTestLedger(t)
	ref := &fakeRefresher{}

	ledger.Store("sess-1", &Bundle{AccessToken: "A", ExpiresAt: time.Now().Add(-time.Minute)})

	got, ok := ledger.RefreshIfNeeded(context.Background(), "sess-1", ref)
	if ok || got != nil {
		t.Fatalf("expected absent, got (%+v, %v)", got, ok)
	}
	if ref.calls != 0 {
		t.Fatalf("no refresh token means no network call, got %d", ref.calls)
	}
	// Irrecoverable record is dropped.
	if _, stillThere := store.Get("sess-1"); stillThere {
		t.Fatal("expected record deleted")
	}
}

func TestRefreshIfNeeded_RefreshFailureLeavesLedgerUnchanged(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ref := &fakeRefresher{ok: false}

	expired := &Bundle{
		AccessToken:  "A",
		RefreshToken: "1//refresh",
		ExpiresAt:    time.Now().Add(-time.Minute).Truncate(time.Second),
	}
	ledger.Store("sess-1", expired)

	if _, ok := ledger.RefreshIfNeeded(context.Background(), "sess-1", ref); ok {
		t.Fatal("failed refresh must yield absent")
	}
	if ref.calls != 1 {
		t.Fatalf("expected one refresh attempt, got %d", ref.calls)
	}

	stored, ok := ledger.Retrieve("sess-1")
	if !ok {
		t.Fatal("record must survive a failed refresh")
	}
	if stored.AccessToken != "A" || stored.RefreshToken != "1//refresh" {
		t.Fatalf("record changed by failed refresh: %+v", stored)
	}
}

func TestRefreshIfNeeded_NothingStored(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ref := &fakeRefresher{}

	if _, ok := ledger.RefreshIfNeeded(context.Background(), "missing", ref); ok {
		t.Fatal("expected absent for unknown owner")
	}
	if ref.calls != 0 {
		t.Fatalf("unexpected refresh call")
	}
}

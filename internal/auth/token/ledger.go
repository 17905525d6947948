// Package token owns stored OAuth credentials: encrypted persistence,
// validity checks, and expiry-aware refresh.
package token

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/crypto"
)

// RecordStore persists ciphertext blobs keyed by owner (session or user id).
type RecordStore interface {
	Put(ownerKey, ciphertext string) error
	Get(ownerKey string) (string, bool)
	Delete(ownerKey string) error
}

// Refresher exchanges a refresh token for a fresh bundle. Implemented by the
// OAuth coordinator; abstracted here so ledger tests need no network.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*Bundle, bool)
}

// Ledger stores token bundles encrypted at rest and hands out valid access
// tokens, refreshing through the coordinator when a bundle has expired.
type Ledger struct {
	store  RecordStore
	cipher *crypto.Cipher
	now    func() time.Time
}

// NewLedger wires a ledger over the given record store and cipher.
func NewLedger(store RecordStore, cipher *crypto.Cipher) *Ledger {
	return &Ledger{store: store, cipher: cipher, now: time.Now}
}

// Store encrypts and persists a bundle for ownerKey, replacing any previous
// record. Returns false if encryption or persistence fails.
func (l *Ledger) Store(ownerKey string, bundle *Bundle) bool {
	plaintext, err := json.Marshal(bundle)
	if err != nil {
		log.Error().Err(err).Msg("serialize token bundle")
		return false
	}
	ciphertext, err := l.cipher.Encrypt(plaintext)
	if err != nil {
		log.Error().Err(err).Msg("encrypt token bundle")
		return false
	}
	if err := l.store.Put(ownerKey, ciphertext); err != nil {
		log.Error().Err(err).Str("owner", ownerKey).Msg("persist token record")
		return false
	}
	return true
}

// Retrieve decrypts the stored bundle for ownerKey. An unreadable record
// (wrong key, corruption) is treated as if nothing were stored; it is never
// retried.
func (l *Ledger) Retrieve(ownerKey string) (*Bundle, bool) {
	ciphertext, ok := l.store.Get(ownerKey)
	if !ok {
		return nil, false
	}
	plaintext, err := l.cipher.Decrypt(ciphertext)
	if err != nil {
		log.Warn().Str("owner", ownerKey).Msg("stored token record is unreadable, ignoring")
		return nil, false
	}
	var bundle Bundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		log.Warn().Str("owner", ownerKey).Msg("stored token record is malformed, ignoring")
		return nil, false
	}
	return &bundle, true
}

// IsValid reports whether the bundle's access token is still usable.
func (l *Ledger) IsValid(bundle *Bundle) bool {
	return bundle.Valid(l.now())
}

// Delete removes the record for ownerKey, if any.
func (l *Ledger) Delete(ownerKey string) {
	if err := l.store.Delete(ownerKey); err != nil {
		log.Warn().Err(err).Str("owner", ownerKey).Msg("delete token record")
	}
}

// RefreshIfNeeded returns a currently valid bundle for ownerKey, refreshing
// through the coordinator when expired. A refresh failure leaves the ledger
// unchanged and yields absent: callers must treat that as "re-authentication
// required", not as a fatal error. An expired bundle with no refresh token is
// irrecoverable and its record is dropped.
func (l *Ledger) RefreshIfNeeded(ctx context.Context, ownerKey string, refresher Refresher) (*Bundle, bool) {
	bundle, ok := l.Retrieve(ownerKey)
	if !ok {
		return nil, false
	}
	if l.IsValid(bundle) {
		return bundle, true
	}
	if bundle.RefreshToken == "" {
		log.Info().Str("owner", ownerKey).Msg("token expired with no refresh token, dropping record")
		l.Delete(ownerKey)
		return nil, false
	}

	fresh, ok := refresher.Refresh(ctx, bundle.RefreshToken)
	if !ok {
		log.Warn().Str("owner", ownerKey).Msg("token refresh failed, re-authentication required")
		return nil, false
	}

	merged := bundle.Merge(fresh)
	if !l.Store(ownerKey, merged) {
		return nil, false
	}
	return merged, true
}

// Package state issues and verifies single-use CSRF tokens for the OAuth
// handshake. A token binds an authorization request to its callback: it is
// accepted at most once and only within the validity window.
package state

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is how long an issued state token remains verifiable.
const DefaultTTL = time.Hour

type record struct {
	issuedAt time.Time
	consumed bool
}

// Store holds pending state tokens behind a single lock so concurrent
// authorization flows cannot race on issue/consume.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	tokens  map[string]*record
	now     func() time.Time
}

// NewStore creates a store with the given validity window.
// A non-positive ttl falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:    ttl,
		tokens: make(map[string]*record),
		now:    time.Now,
	}
}

// Issue generates a cryptographically random token and records it as pending.
// Expired records are pruned on each issue so the map cannot grow without
// bound; there is no background goroutine.
func (s *Store) Issue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.tokens[token] = &record{issuedAt: s.now()}
	return token, nil
}

// Verify consumes a token. It returns true exactly once per issued token,
// and false for unknown, already consumed, or expired tokens. A failed
// verification is final: the caller must restart the authorization flow.
func (s *Store) Verify(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[token]
	if !ok || rec.consumed {
		return false
	}
	if s.now().Sub(rec.issuedAt) > s.ttl {
		delete(s.tokens, token)
		return false
	}
	rec.consumed = true
	return true
}

// Pending reports how many unexpired, unconsumed tokens are outstanding.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.tokens {
		if !rec.consumed && s.now().Sub(rec.issuedAt) <= s.ttl {
			n++
		}
	}
	return n
}

func (s *Store) pruneLocked() {
	cutoff := s.now().Add(-s.ttl)
	for token, rec := range s.tokens {
		if rec.issuedAt.Before(cutoff) || rec.consumed {
			delete(s.tokens, token)
		}
	}
}

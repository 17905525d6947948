// Package crypto encrypts serialized token bundles at rest. OAuth tokens are
// bearer credentials for the Calendar API, so they are never persisted in
// plaintext; the key is derived from process configuration, which makes this
// defense-in-depth rather than a hard security boundary.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

// ErrDecryption is returned when ciphertext cannot be opened: wrong key,
// truncated input, or corruption. Callers treat it as "no token stored".
var ErrDecryption = errors.New("token decryption failed")

const (
	// Fixed KDF parameters so the same passphrase always yields the same key.
	kdfSalt       = "agentcal-token-salt"
	kdfIterations = 100_000
)

// Cipher performs authenticated symmetric encryption of token blobs.
type Cipher struct {
	key []byte
}

// NewCipher builds a cipher from a pre-shared base64 key when one is
// configured, otherwise derives a key from the passphrase via
// PBKDF2-HMAC-SHA256 with a fixed salt.
func NewCipher(base64Key, passphrase string) (*Cipher, error) {
	if base64Key != "" {
		key, err := base64.StdEncoding.DecodeString(base64Key)
		if err != nil {
			return nil, fmt.Errorf("decode encryption key: %w", err)
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
		}
		return &Cipher{key: key}, nil
	}
	if passphrase == "" {
		return nil, errors.New("no encryption key or passphrase configured")
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(kdfSalt), kdfIterations, chacha20poly1305.KeySize, sha256.New)
	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext with ChaCha20-Poly1305 and returns base64
// ciphertext with the random nonce prepended.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens base64 ciphertext produced by Encrypt. Any failure is
// reported as ErrDecryption; the cause is intentionally not distinguished.
func (c *Cipher) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, ErrDecryption
	}

	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, ErrDecryption
	}
	if len(raw) < aead.NonceSize() {
		return nil, ErrDecryption
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

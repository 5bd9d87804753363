package utils

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// EmailHasher derives the cross-device join key for a visitor email.
// The plaintext address is never returned or stored.
type EmailHasher struct {
	key []byte
}

// NewEmailHasher creates a hasher. A non-empty key turns the digest into a keyed MAC,
// so the join key cannot be recomputed from a guessed address without the key.
func NewEmailHasher(key string) (*EmailHasher, error) {
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("email hash key too long (max %d bytes)", blake2b.Size)
	}
	return &EmailHasher{key: []byte(key)}, nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Hash returns the hex encoded BLAKE2b-256 digest of the normalized email.
// An empty email yields an empty hash.
func (h *EmailHasher) Hash(email string) (string, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return "", nil
	}

	mac, err := blake2b.New256(h.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialise email hash: %w", err)
	}
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

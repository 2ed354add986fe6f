// Package hashing implements deterministic salted password hashing so that
// historical salt/hash pairs can always be re-verified.
package hashing

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count.
	DefaultIterations = 1000
	// DefaultKeyBits is the derived key length in bits.
	DefaultKeyBits = 160
	// saltBits is the size of a freshly generated salt.
	saltBits = 160
)

// Hasher derives hex-encoded PBKDF2-HMAC-SHA1 hashes from passwords and
// hex-encoded salts. It is pure: the same inputs always yield the same output.
type Hasher struct {
	iterations int
	keyLen     int
}

// New validates the configuration and returns a Hasher. A non-positive
// iteration count or a key length that is not a whole number of bytes is a
// startup error.
func New(iterations, keyBits int) (*Hasher, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("hashing: iteration count must be positive, got %d", iterations)
	}
	if keyBits <= 0 || keyBits%8 != 0 {
		return nil, fmt.Errorf("hashing: key length must be a positive multiple of 8 bits, got %d", keyBits)
	}
	return &Hasher{iterations: iterations, keyLen: keyBits / 8}, nil
}

// Hash derives the hex-encoded hash of password under the given hex salt.
func (h *Hasher) Hash(password, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("hashing: invalid salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, h.iterations, h.keyLen, sha1.New)
	return hex.EncodeToString(key), nil
}

// Verify hashes password under saltHex and compares it to hashHex. The
// comparison is exact, case-sensitive, and constant-time.
func (h *Hasher) Verify(password, saltHex, hashHex string) (bool, error) {
	computed, err := h.Hash(password, saltHex)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hashHex)) == 1, nil
}

// NewSalt returns a fresh cryptographically random hex-encoded salt.
func (h *Hasher) NewSalt() (string, error) {
	b := make([]byte, saltBits/8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("hashing: failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

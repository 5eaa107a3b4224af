package random

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// Random produces identifiers and secrets. Swapped for a mock in tests.
type Random interface {
	// ID returns a new unique identifier
	ID() string

	// Token returns an unguessable URL-safe token built from n random bytes
	Token(n int) string
}

// CryptoRandom implements Random using uuid and crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// ID returns a random (version 4) UUID
func (r *CryptoRandom) ID() string {
	return uuid.NewString()
}

// Token returns base64url-encoded random bytes
func (r *CryptoRandom) Token(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

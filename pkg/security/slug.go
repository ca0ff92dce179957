package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// adminSlugBytes yields a 256-bit capability token once encoded.
const adminSlugBytes = 32

// NewAdminSlug generates the opaque capability token gating the hidden admin
// surface. It is minted exactly once, at admin signup, and is never derivable
// from the account's email.
func NewAdminSlug() (string, error) {
	raw := make([]byte, adminSlugBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate admin slug: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// TokensEqual compares two capability tokens in constant time. Possession of
// the exact token is the only way to pass; a near-miss must be
// indistinguishable from garbage.
func TokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

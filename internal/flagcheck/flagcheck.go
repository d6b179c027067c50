// Package flagcheck implements server-side flag verification. Verification
// compares SHA-256 digests, never plaintext, so the correct flag is neither
// persisted nor logged anywhere in the service.
package flagcheck

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

// DigestSize is the length in bytes of a flag digest.
const DigestSize = sha256.Size

// Normalize trims leading/trailing whitespace from a submitted flag.
// Case and interior whitespace are significant: flags are exact-match tokens.
func Normalize(flag string) string {
	return strings.TrimSpace(flag)
}

// Digest returns the SHA-256 digest of the normalized flag.
func Digest(flag string) []byte {
	h := sha256.Sum256([]byte(Normalize(flag)))
	return h[:]
}

// Verify reports whether the submitted plaintext matches the stored digest.
// The comparison is constant-time to avoid leaking flag bytes through
// response timing. Malformed stored digests simply fail to match.
func Verify(submitted string, storedDigest []byte) bool {
	if len(storedDigest) != DigestSize {
		return false
	}
	return subtle.ConstantTimeCompare(Digest(submitted), storedDigest) == 1
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the hex-encoded SHA-256 of b, used as a cache identifier.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashString is HashBytes for strings.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

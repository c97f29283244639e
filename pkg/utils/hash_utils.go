package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher provides consistent content fingerprints across the application.
// Cache keys and log masking both go through it so the same input always
// produces the same digest.
type Hasher struct{}

// NewHasher creates a new hasher instance
func NewHasher() *Hasher {
	return &Hasher{}
}

// Fingerprint returns the hex encoded SHA-256 digest of data
func (h *Hasher) Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintString is Fingerprint for strings; the empty string hashes to ""
func (h *Hasher) FingerprintString(s string) string {
	if s == "" {
		return ""
	}
	return h.Fingerprint([]byte(s))
}

// FingerprintShort returns the first 8 characters of the string fingerprint.
// Useful for logging and display purposes
func (h *Hasher) FingerprintShort(s string) string {
	full := h.FingerprintString(s)
	if len(full) >= 8 {
		return full[:8]
	}
	return full
}

var globalHasher = NewHasher()

// Fingerprint is a convenience function that uses the global hasher
func Fingerprint(data []byte) string {
	return globalHasher.Fingerprint(data)
}

// FingerprintString is a convenience function that uses the global hasher
func FingerprintString(s string) string {
	return globalHasher.FingerprintString(s)
}

// FingerprintShort is a convenience function that uses the global hasher
func FingerprintShort(s string) string {
	return globalHasher.FingerprintShort(s)
}

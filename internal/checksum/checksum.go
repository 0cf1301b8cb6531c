// Package checksum signs and verifies payment-gateway payloads.
//
// A payload is a fixed, ordered list of field values joined with "|" and
// authenticated with HMAC-SHA256 under a shared key. The hex digest travels
// alongside the fields.
package checksum

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Delimiter separates fields in the signed string.
const Delimiter = "|"

// Payload joins fields in the order given.
func Payload(fields ...string) string {
	return strings.Join(fields, Delimiter)
}

// Sign returns the lowercase hex HMAC-SHA256 of the joined fields.
func Sign(key string, fields ...string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(Payload(fields...)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether expected is the checksum of fields under key.
// The comparison is constant-time.
func Verify(key, expected string, fields ...string) bool {
	computed := Sign(key, fields...)
	return hmac.Equal([]byte(computed), []byte(strings.ToLower(strings.TrimSpace(expected))))
}

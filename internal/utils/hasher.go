package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash generates a SHA-256 hash of the input string
func Hash(input string) string {
	hasher := sha256.New()
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))
}

// CacheKey joins the parts with ':' and hashes the last one when it is long
// enough to make keys unwieldy.
func CacheKey(parts ...string) string {
	out := append([]string(nil), parts...)
	if n := len(out); n > 0 && len(out[n-1]) > 64 {
		out[n-1] = Hash(out[n-1])
	}
	return strings.Join(out, ":")
}

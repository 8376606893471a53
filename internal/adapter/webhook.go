package adapter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignPayload computes the hex HMAC-SHA256 of payload under secret. Adapters
// that verify provider webhooks with a shared secret should build on this and
// SecureCompare instead of hand-rolling comparisons.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SecureCompare reports whether two signature strings match in constant time.
func SecureCompare(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

// VerifyHMACSignature checks a hex HMAC-SHA256 signature against payload and
// secret. It tolerates a "sha256=" prefix, which several providers prepend.
// Empty signatures or secrets are rejected outright.
func VerifyHMACSignature(payload []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	signature = strings.TrimPrefix(signature, "sha256=")
	if signature == "" || secret == "" {
		return false
	}
	return SecureCompare(strings.ToLower(signature), SignPayload(payload, secret))
}

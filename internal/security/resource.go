package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SignDocument binds a stored document id to its object key so a tampered row is detectable.
func SignDocument(secret string, parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, ":")))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func VerifyDocument(secret string, signature string, parts ...string) bool {
	expected := SignDocument(secret, parts...)
	return hmac.Equal([]byte(expected), []byte(signature))
}

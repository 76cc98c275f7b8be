package common

import (
	"crypto/rand"
	"strings"
)

// GenerateRandByteArray returns size bytes read from crypto/rand.
func GenerateRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// WipeByteArray overwrites the contents of b with zeros. Used to drop
// plaintext copies of secrets once they are no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// BearerToken extracts the token from an authorization value of the form
// "Bearer <token>". The scheme is matched case-insensitively. It returns ""
// when the value does not carry a bearer token.
func BearerToken(value string) string {
	value = strings.TrimSpace(value)
	if len(value) < len(BearerPrefix) || !strings.EqualFold(value[:len(BearerPrefix)], BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(value[len(BearerPrefix):])
}

package requester

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyPrefix marks every issued API key so leaked credentials can be
// recognized in scanners and logs.
const KeyPrefix = "prr_"

// GenerateKey creates a cryptographically secure API key.
// The plaintext is returned exactly once, at registration time.
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate api key: %w", err)
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashKey derives the stored form of an API key. SHA-256 keeps the lookup a
// single indexed equality check; the key itself carries 256 bits of entropy,
// so no slow hash is needed.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// HasKeyShape reports whether a presented credential even looks like one of
// ours, so obviously wrong values can be rejected before any store access.
func HasKeyShape(key string) bool {
	return strings.HasPrefix(key, KeyPrefix) && len(key) > len(KeyPrefix)
}

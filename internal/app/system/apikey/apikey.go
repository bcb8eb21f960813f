// Package apikey generates organization API keys.
package apikey

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Base32 is the RFC 4648 base32 alphabet (no padding character).
const Base32 = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

const (
	groups    = 4
	groupSize = 7
)

// Len is the length of a generated key including separators.
const Len = groups*groupSize + groups - 1

// Generate returns a new key of the form XXXXXXX-XXXXXXX-XXXXXXX-XXXXXXX
// drawn from Base32 (140 bits of entropy).
func Generate() (string, error) {
	raw, err := gonanoid.Generate(Base32, groups*groupSize)
	if err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	parts := make([]string, 0, groups)
	for i := 0; i < groups; i++ {
		parts = append(parts, raw[i*groupSize:(i+1)*groupSize])
	}
	return strings.Join(parts, "-"), nil
}

package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateCode returns 2n uppercase hex characters, used for coupon codes.
func GenerateCode(n int) (string, error) {
	// Make a slice of nBytes random bytes.
	byt := make([]byte, n)

	// Read into the slice.
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	// Return the hexadecimal string.
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// NewID returns a random identifier for entities that are not derived from
// a label (price combinations, discounts, drafts).
func NewID() string {
	return uuid.NewString()
}

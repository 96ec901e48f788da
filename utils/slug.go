package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Normalizer turns free-text labels into stable identifiers.
type Normalizer struct {
	Now func() time.Time
}

func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{Now: now}
}

// Normalize slugifies label. When nothing usable is left it returns
// "{fallbackPrefix}-{unix millis}". Collisions are the caller's concern.
func (n *Normalizer) Normalize(label, fallbackPrefix string) string {
	if slug := Slugify(label); slug != "" {
		return slug
	}
	return fmt.Sprintf("%s-%d", fallbackPrefix, n.Now().UnixMilli())
}

// Slugify folds diacritics, lowercases, and joins alphanumeric runs with
// single hyphens. It may return an empty string.
func Slugify(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, label)
	if err != nil {
		folded = label
	}
	slug := strings.ToLower(strings.TrimSpace(folded))
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

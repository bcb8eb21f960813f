// Package normalize canonicalizes user-supplied identifiers before they are
// stored or compared.
package normalize

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ResourceName canonicalizes organization and collection names: surrounding
// whitespace is dropped, the rest is lower-cased, and every run of interior
// whitespace becomes a single hyphen. "Acme  Widgets" -> "acme-widgets".
func ResourceName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRun.ReplaceAllString(s, "-")
}

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person's name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Header trims a header value. Whitespace-only values become empty.
func Header(s string) string {
	return strings.TrimSpace(s)
}

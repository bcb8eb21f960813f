// Package sanitize strips markup from short profile fields.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag; script and style contents are dropped with
// their elements. bluemonday policies are safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all HTML removed and entities decoded, trimmed.
// The result is meant to be stored and later JSON-encoded, not embedded in
// HTML.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

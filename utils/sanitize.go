package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// SanitizePostField trims a title or body and strips markup unsafe to render back to readers.
// Text is stored as plain text: entities bluemonday escapes are decoded again, so "Tom & Jerry"
// round-trips unchanged.
func SanitizePostField(input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(strings.TrimSpace(input))))
}

package tts

import (
	"regexp"
	"strings"
)

var (
	disallowedRe = regexp.MustCompile(`[^a-zA-Z0-9.,?'"!:\-()\s]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Sanitize drops every character outside the speakable allow-list,
// collapses whitespace runs and trims the ends.
func Sanitize(text string) string {
	text = disallowedRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

package cache

import (
	"regexp"
	"strings"
)

var (
	punctuationPattern = regexp.MustCompile(`[?!.,]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a question for cache keying: lowercase, trimmed,
// with ? ! . , removed and whitespace runs collapsed to a single space.
func Normalize(text string) string {
	normalized := strings.TrimSpace(strings.ToLower(text))
	normalized = punctuationPattern.ReplaceAllString(normalized, "")
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	// Stripping punctuation can expose new leading/trailing spaces ("? hi").
	return strings.TrimSpace(normalized)
}

// Tokens splits the normalized form of text into words.
func Tokens(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

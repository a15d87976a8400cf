package questions

import (
	"strings"
	"unicode/utf8"

	"recruit-assistant/cache"
)

// MinQuestionLength is the shortest message (in characters) worth recording.
const MinQuestionLength = 8

// stoplist holds acknowledgements and greetings that are never analyzed,
// compared against the normalized message.
var stoplist = map[string]bool{
	"yes": true, "no": true, "ok": true, "okay": true, "k": true,
	"thanks": true, "thank you": true, "thank you so much": true, "thanks a lot": true, "thx": true, "ty": true,
	"hi": true, "hello": true, "hey": true, "hi there": true, "hello there": true,
	"bye": true, "goodbye": true, "good bye": true, "see you": true,
	"sure": true, "cool": true, "great": true, "awesome": true, "got it": true, "sounds good": true,
	"nope": true, "yep": true, "yeah": true, "nah": true,
}

// indicators mark a message as interrogative. Matching is substring
// containment, so "howdy" counts as containing "how".
var indicators = []string{
	"how", "what", "when", "where", "why", "who", "which",
	"can i", "do i", "should i", "is there", "are there", "does", "do you",
	"will i", "would i", "tell me", "explain",
}

// IsQuestion reports whether a raw chat message is an analyzable question
// rather than a greeting, acknowledgement or fragment.
func IsQuestion(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) < MinQuestionLength {
		return false
	}

	normalized := cache.Normalize(trimmed)
	if stoplist[normalized] {
		return false
	}

	// Normalization strips "?", so look for it in the raw text.
	if strings.Contains(trimmed, "?") {
		return true
	}
	for _, indicator := range indicators {
		if strings.Contains(normalized, indicator) {
			return true
		}
	}
	return false
}

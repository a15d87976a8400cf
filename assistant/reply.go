package assistant

import (
	"regexp"
	"strings"
)

// ScrollToFormTag is the sentinel the assistant emits when the user should be
// sent to the contact form.
const ScrollToFormTag = "[SCROLL_TO_FORM]"

var (
	citationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`【\d+:\d+†[^】]+】`),
		regexp.MustCompile(`\[\d+:\d+†[^\]]+\]`),
		regexp.MustCompile(`\[\d+\]`),
		regexp.MustCompile(`†[^\s]+\.pdf`),
	}
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// RemoveCitations strips file_search citation markers and collapses whitespace.
func RemoveCitations(text string) string {
	for _, p := range citationPatterns {
		text = p.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// CleanReply prepares raw assistant output for display, reporting separately
// whether it carried the scroll-to-form sentinel.
func CleanReply(raw string) (string, bool) {
	text := RemoveCitations(raw)
	if !strings.Contains(text, ScrollToFormTag) {
		return text, false
	}
	text = strings.ReplaceAll(text, ScrollToFormTag, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " ")), true
}

package nlp

import (
	"regexp"
	"strings"
)

var (
	mentionRe    = regexp.MustCompile(`@\w+`)
	hashtagRe    = regexp.MustCompile(`#\w+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize strips @mention and #hashtag markers and collapses whitespace
// runs to single spaces, trimming the ends. Pure function; empty input
// yields empty output.
func Normalize(text string) string {
	text = mentionRe.ReplaceAllString(text, "")
	text = hashtagRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

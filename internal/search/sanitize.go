package search

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxSnippetLength is the rune budget for an evidence snippet
const MaxSnippetLength = 200

var strictPolicy = bluemonday.StrictPolicy()

// CleanSnippet strips markup, collapses whitespace and truncates to MaxSnippetLength runes.
// Truncated snippets end in "...".
func CleanSnippet(raw string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(raw))
	text = strings.Join(strings.Fields(text), " ")

	if utf8.RuneCountInString(text) <= MaxSnippetLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:MaxSnippetLength])) + "..."
}

// truncateRunes returns the first n runes of s
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

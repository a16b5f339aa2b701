package verify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/veritas/internal/model"
)

// SupportOverlap is the share of claim content words a snippet must repeat to count as support
const SupportOverlap = 0.5

// refutationCues mark a snippet as disputing its claim.
// A cue that already appears in the claim itself is ignored.
var refutationCues = []string{
	"false", "myth", "debunked", "not true", "no evidence", "incorrect",
	"misleading", "hoax", "disproven", "refuted", "untrue", "fabricated",
	"misconception", "contrary to", "there is no", "never happened",
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "were": true,
	"has": true, "have": true, "had": true, "that": true, "this": true, "with": true,
	"from": true, "its": true, "into": true, "than": true, "then": true, "they": true,
	"their": true, "there": true, "which": true, "who": true, "will": true, "would": true,
	"can": true, "could": true, "been": true, "being": true, "also": true, "about": true,
	"but": true, "not": true, "all": true, "any": true, "some": true, "such": true,
	"our": true, "you": true, "your": true, "his": true, "her": true, "she": true,
	"him": true, "them": true, "these": true, "those": true, "what": true, "when": true,
	"where": true, "how": true, "why": true, "very": true, "more": true, "most": true,
}

var (
	quotedSpan   = regexp.MustCompile(`"[^"]*"|“[^”]*”`)
	sentenceSpan = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// statements drops quoted text and questions from a snippet, leaving
// only what the source itself asserts
func statements(snippet string) string {
	unquoted := quotedSpan.ReplaceAllString(snippet, " ")
	var kept []string
	for _, sentence := range sentenceSpan.FindAllString(unquoted, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || strings.HasSuffix(sentence, "?") {
			continue
		}
		kept = append(kept, sentence)
	}
	return strings.Join(kept, " ")
}

// ClassifyStance decides how snippet relates to claim using lexical cues only.
// A snippet supports its claim when it repeats most of the claim's content
// words and adds words of its own; a bare restatement stays neutral.
func ClassifyStance(claim, snippet string) model.Stance {
	body := statements(snippet)
	claimText := " " + strings.Join(tokenize(claim), " ") + " "
	snippetText := " " + strings.Join(tokenize(body), " ") + " "

	for _, cue := range refutationCues {
		padded := " " + cue + " "
		if strings.Contains(snippetText, padded) && !strings.Contains(claimText, padded) {
			return model.StanceContradicts
		}
	}

	claimWords := contentWords(claim)
	if len(claimWords) == 0 {
		return model.StanceNeutral
	}
	shared, added := 0, 0
	for w := range contentWords(body) {
		if claimWords[w] {
			shared++
		} else {
			added++
		}
	}
	if added > 0 && float64(shared)/float64(len(claimWords)) >= SupportOverlap {
		return model.StanceSupports
	}
	return model.StanceNeutral
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func contentWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, tok := range tokenize(s) {
		if stopwords[tok] {
			continue
		}
		if len([]rune(tok)) < 3 && !isNumber(tok) {
			continue
		}
		words[tok] = true
	}
	return words
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

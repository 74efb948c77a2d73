package summary

import (
	"regexp"
	"strings"
)

// sentenceSplit matches sentence boundaries: terminal punctuation followed
// by whitespace. Trailing punctuation at end of text is not a boundary, so
// the last sentence keeps its punctuation after a split.
var sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)

// EnforceSentenceLimit truncates text to at most maxSentences sentences.
// Text already within the limit is returned unchanged, original punctuation
// included. Truncated text is re-joined with ". " and given a terminal "."
// when it lacks terminal punctuation.
func EnforceSentenceLimit(text string, maxSentences int) string {
	parts := sentenceSplit.Split(text, -1)

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}

	if len(sentences) <= maxSentences {
		return text
	}

	result := strings.Join(sentences[:maxSentences], ". ")
	if !strings.HasSuffix(result, ".") && !strings.HasSuffix(result, "!") && !strings.HasSuffix(result, "?") {
		result += "."
	}
	return result
}

// CountSentences reports how many sentences EnforceSentenceLimit sees in text
func CountSentences(text string) int {
	count := 0
	for _, p := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count
}

package contextbuilder

import (
	"strings"

	"alrah-ai-be/pkg/rag"
)

const ellipsis = "..."

// Build turns ranked retrieval matches into the bounded context block of the
// prompt. Matches scoring above threshold are kept in input order; if none
// qualify, the first fallbackCount matches are used regardless of score so a
// weak match still beats a refusal. With no matches at all the sentinel is
// returned, never an empty string. The joined text is hard-truncated to
// maxChars runes with an ellipsis marker.
//
// Deterministic: no re-sorting, no model calls.
func Build(matches []rag.Match, threshold float64, maxChars int, fallbackCount int, sentinel string) string {
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Score > threshold {
			texts = append(texts, m.Text)
		}
	}

	if len(texts) == 0 {
		n := fallbackCount
		if n > len(matches) {
			n = len(matches)
		}
		for _, m := range matches[:n] {
			texts = append(texts, m.Text)
		}
	}

	if len(texts) == 0 {
		return sentinel
	}

	joined := strings.Join(texts, "\n")
	return truncateRunes(joined, maxChars)
}

// truncateRunes counts runes, not bytes, so Arabic text is never cut inside a
// character.
func truncateRunes(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + ellipsis
}

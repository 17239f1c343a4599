package history

import (
	"strings"
)

// Entry is one prior turn handed to the summarizer. Kept free of storage
// types so the package stays a pure formatter.
type Entry struct {
	Role    string
	Content string
}

var roleLabels = map[string]string{
	"user":      "المستخدم",
	"assistant": "المساعد",
}

// Summarize renders a bounded "prior conversation" block for prompt
// inclusion. The last entry is the turn currently being answered and is
// always excluded; of the rest, only the most recent maxRecent entries are
// kept, each capped at perMessageChars runes. Fewer than two entries means
// there is no prior context, so the result is empty.
func Summarize(entries []Entry, maxRecent int, perMessageChars int, header string) string {
	if len(entries) < 2 {
		return ""
	}

	prior := entries[:len(entries)-1]
	if len(prior) > maxRecent {
		prior = prior[len(prior)-maxRecent:]
	}

	var b strings.Builder
	b.WriteString(header)
	for _, e := range prior {
		label, ok := roleLabels[e.Role]
		if !ok {
			label = e.Role
		}
		b.WriteString("\n")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(capRunes(e.Content, perMessageChars))
	}
	return b.String()
}

func capRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

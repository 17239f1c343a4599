package prompt

import (
	"strings"
)

// Builder assembles the single user prompt sent to the completion provider:
// retrieved context, then the prior-conversation summary, then the question,
// in that fixed order. The system instruction travels separately as the
// provider's system message.
type Builder struct {
	context string
	summary string
	query   string
}

func NewBuilder(context, summary, query string) *Builder {
	return &Builder{
		context: context,
		summary: summary,
		query:   query,
	}
}

func (b *Builder) Build() string {
	var p strings.Builder

	p.WriteString("السياق المتوفر: ")
	p.WriteString(b.context)

	if b.summary != "" {
		p.WriteString("\n\n")
		p.WriteString(b.summary)
	}

	p.WriteString("\n\nالسؤال: ")
	p.WriteString(b.query)

	return p.String()
}

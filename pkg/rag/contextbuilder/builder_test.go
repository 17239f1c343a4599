package contextbuilder

import (
	"strings"
	"testing"

	"alrah-ai-be/pkg/rag"
)

const sentinel = "لا توجد معلومات متاحة في قاعدة البيانات"

func TestBuild(t *testing.T) {
	tests := []struct {
		name          string
		matches       []rag.Match
		threshold     float64
		maxChars      int
		fallbackCount int
		want          string
	}{
		{
			name: "keeps matches above threshold in order",
			matches: []rag.Match{
				{Score: 0.5, Text: "الدليل الأول"},
				{Score: 0.4, Text: "الدليل الثاني"},
				{Score: 0.1, Text: "نص ضعيف"},
			},
			threshold:     0.3,
			maxChars:      2000,
			fallbackCount: 2,
			want:          "الدليل الأول\nالدليل الثاني",
		},
		{
			name: "falls back to first matches when none qualify",
			matches: []rag.Match{
				{Score: 0.2, Text: "أول"},
				{Score: 0.15, Text: "ثاني"},
				{Score: 0.1, Text: "ثالث"},
			},
			threshold:     0.3,
			maxChars:      2000,
			fallbackCount: 2,
			want:          "أول\nثاني",
		},
		{
			name:          "sentinel on empty matches",
			matches:       nil,
			threshold:     0.3,
			maxChars:      2000,
			fallbackCount: 2,
			want:          sentinel,
		},
		{
			name: "fallback larger than matches uses all",
			matches: []rag.Match{
				{Score: 0.1, Text: "وحيد"},
			},
			threshold:     0.3,
			maxChars:      2000,
			fallbackCount: 5,
			want:          "وحيد",
		},
		{
			name: "score equal to threshold does not qualify",
			matches: []rag.Match{
				{Score: 0.3, Text: "على الحد"},
				{Score: 0.31, Text: "فوق الحد"},
			},
			threshold:     0.3,
			maxChars:      2000,
			fallbackCount: 1,
			want:          "فوق الحد",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.matches, tt.threshold, tt.maxChars, tt.fallbackCount, sentinel)
			if got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("سؤال", 100) // 400 runes, 800 bytes
	matches := []rag.Match{{Score: 0.9, Text: long}}

	got := Build(matches, 0.3, 10, 2, sentinel)

	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	body := strings.TrimSuffix(got, "...")
	if runeCount := len([]rune(body)); runeCount != 10 {
		t.Errorf("truncated to %d runes, want 10", runeCount)
	}
	// Must remain valid UTF-8 prefixes of the input
	if !strings.HasPrefix(long, body) {
		t.Errorf("truncation broke the text: %q", body)
	}
}

func TestBuildNoTruncationWhenWithinBudget(t *testing.T) {
	matches := []rag.Match{{Score: 0.9, Text: "نص قصير"}}

	got := Build(matches, 0.3, 2000, 2, sentinel)

	if got != "نص قصير" {
		t.Errorf("Build() = %q, want unchanged text", got)
	}
}

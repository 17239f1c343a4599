package history

import (
	"strings"
	"testing"
)

const header = "المحادثة السابقة:"

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    string
	}{
		{
			name:    "empty history",
			entries: nil,
			want:    "",
		},
		{
			name: "single entry has no prior context",
			entries: []Entry{
				{Role: "user", Content: "سؤال أول"},
			},
			want: "",
		},
		{
			name: "excludes the current turn",
			entries: []Entry{
				{Role: "user", Content: "سؤال أول"},
				{Role: "assistant", Content: "جواب أول"},
				{Role: "user", Content: "سؤال ثانٍ"},
			},
			want: header + "\nالمستخدم: سؤال أول\nالمساعد: جواب أول",
		},
		{
			name: "unknown role keeps its raw label",
			entries: []Entry{
				{Role: "system", Content: "تنبيه"},
				{Role: "user", Content: "سؤال"},
			},
			want: header + "\nsystem: تنبيه",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.entries, 6, 200, header)
			if got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeKeepsOnlyRecent(t *testing.T) {
	entries := []Entry{
		{Role: "user", Content: "قديم جداً"},
		{Role: "assistant", Content: "جواب قديم"},
		{Role: "user", Content: "حديث"},
		{Role: "assistant", Content: "جواب حديث"},
		{Role: "user", Content: "السؤال الحالي"},
	}

	got := Summarize(entries, 2, 200, header)

	if strings.Contains(got, "قديم جداً") {
		t.Errorf("old entry should be dropped: %q", got)
	}
	if !strings.Contains(got, "حديث") || !strings.Contains(got, "جواب حديث") {
		t.Errorf("recent entries missing: %q", got)
	}
	if strings.Contains(got, "السؤال الحالي") {
		t.Errorf("current turn must be excluded: %q", got)
	}
}

func TestSummarizeCapsMessageLength(t *testing.T) {
	long := strings.Repeat("كلمة ", 100)
	entries := []Entry{
		{Role: "user", Content: long},
		{Role: "user", Content: "الحالي"},
	}

	got := Summarize(entries, 6, 20, header)

	line := strings.TrimPrefix(got, header+"\nالمستخدم: ")
	if !strings.HasSuffix(line, "...") {
		t.Fatalf("expected capped content with ellipsis, got %q", line)
	}
	if runeCount := len([]rune(strings.TrimSuffix(line, "..."))); runeCount != 20 {
		t.Errorf("capped to %d runes, want 20", runeCount)
	}
}

package prompt

import (
	"strings"
	"testing"
)

func TestBuildWithSummary(t *testing.T) {
	got := NewBuilder("النص المسترجع", "المحادثة السابقة:\nالمستخدم: سؤال", "ما هو الدليل؟").Build()

	want := "السياق المتوفر: النص المسترجع\n\nالمحادثة السابقة:\nالمستخدم: سؤال\n\nالسؤال: ما هو الدليل؟"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuildWithoutSummary(t *testing.T) {
	got := NewBuilder("النص", "", "السؤال الأول").Build()

	want := "السياق المتوفر: النص\n\nالسؤال: السؤال الأول"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuildOrdering(t *testing.T) {
	got := NewBuilder("سياق", "ملخص", "سؤال").Build()

	ctxIdx := strings.Index(got, "سياق")
	sumIdx := strings.Index(got, "ملخص")
	qIdx := strings.Index(got, "سؤال")

	if !(ctxIdx < sumIdx && sumIdx < qIdx) {
		t.Errorf("prompt sections out of order: %q", got)
	}
}

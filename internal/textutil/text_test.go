package textutil

import (
	"reflect"
	"testing"
	"unicode/utf8"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "   ", nil},
		{"no punctuation", "just a fragment", []string{"just a fragment"}},
		{"mixed", "One. Two!  Three? Four", []string{"One.", "Two!", "Three?", "Four"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sentences(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sentences(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	text := "One. Two. Three."

	if got := Truncate(text, 100); got != text {
		t.Errorf("short text changed: %q", got)
	}
	if got := Truncate(text, 9); got != "One. Two." {
		t.Errorf("Truncate(9) = %q, want %q", got, "One. Two.")
	}
	if got := Truncate(text, 0); got != text {
		t.Errorf("Truncate(0) should not truncate, got %q", got)
	}

	long := "Averyveryverylongsentencewithoutanybreaks."
	got := Truncate(long, 10)
	if utf8.RuneCountInString(got) != 10 {
		t.Errorf("hard cut length = %d, want 10", utf8.RuneCountInString(got))
	}
}

func TestWordsAndNormalize(t *testing.T) {
	if got := Words("AI's rise, in 2024!"); !reflect.DeepEqual(got, []string{"ai's", "rise", "in", "2024"}) {
		t.Errorf("Words = %#v", got)
	}
	if got := Normalize("  Hello\n\tWORLD  "); got != "hello world" {
		t.Errorf("Normalize = %q", got)
	}
	if WordCount("a b  c") != 3 {
		t.Error("WordCount mismatch")
	}
	if !IsStopword("the") || IsStopword("ai") {
		t.Error("IsStopword mismatch")
	}
}

// Package textutil holds the small text helpers shared by the pipeline stages.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
)

// Sentences splits text into trimmed sentences. A trailing fragment without
// terminal punctuation is kept as its own sentence.
func Sentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// Truncate shortens text to at most maxChars runes, cutting at the last
// sentence boundary that fits. A single over-long sentence is cut mid-word.
func Truncate(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	var b strings.Builder
	n := 0
	for _, s := range Sentences(text) {
		need := utf8.RuneCountInString(s)
		if n > 0 {
			need++
		}
		if n+need > maxChars {
			break
		}
		if n > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
		n += need
	}
	if b.Len() > 0 {
		return b.String()
	}
	return string([]rune(text)[:maxChars])
}

// Words returns the lower-cased word tokens of text.
func Words(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Normalize lower-cases text and collapses whitespace, for fingerprinting.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Stopwords is the English stopword set used by the embedder, the
// summarizer and the relevance check.
var Stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "what", "which", "who", "how", "why", "when", "where", "do", "does", "did",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword reports whether w is in Stopwords.
func IsStopword(w string) bool {
	_, ok := Stopwords[w]
	return ok
}

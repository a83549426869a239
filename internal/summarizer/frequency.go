// Package summarizer builds extractive summaries by ranking sentences on
// word frequency.
package summarizer

import (
	"math"
	"sort"
	"strings"

	"newsrag/internal/textutil"
)

const DefaultSentences = 3

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct{}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{}
}

// Summarize returns the maxSentences highest-scoring sentences in their
// original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) string {
	return s.rank(text, nil, maxSentences)
}

// SummarizeFor is Summarize with sentences that mention the query's terms
// ranked first. It backs the degraded answer when the LLM is unavailable.
func (s *FrequencySummarizer) SummarizeFor(query, text string, maxSentences int) string {
	terms := map[string]struct{}{}
	for _, w := range textutil.Words(query) {
		if !textutil.IsStopword(w) {
			terms[w] = struct{}{}
		}
	}
	return s.rank(text, terms, maxSentences)
}

func (s *FrequencySummarizer) rank(text string, terms map[string]struct{}, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultSentences
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	for i, sent := range sentences {
		tokens[i] = textutil.Words(sent)
		for _, tok := range tokens[i] {
			if !textutil.IsStopword(tok) {
				freq[tok]++
			}
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i := range sentences {
		score, hits := 0.0, 0
		for _, tok := range tokens[i] {
			score += freq[tok]
			if _, ok := terms[tok]; ok {
				hits++
			}
		}
		// normalize by length to avoid bias toward long sentences
		if l := float64(len(tokens[i])); l > 0 {
			score /= math.Sqrt(l)
		}
		// each query term hit outweighs any frequency score
		score += float64(hits) * 10
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"newsrag/internal/domain"
	"newsrag/internal/logger"
	"newsrag/internal/summarizer"
	"newsrag/internal/textutil"
)

const (
	DefaultTopK            = 3
	DefaultMaxContextChars = 3000
	DefaultNoDataAnswer    = "I don't have any news articles that answer this yet. Try scraping some articles first."
)

const answerPrompt = `You are a News QA Agent. Use ONLY the context below.

CONTEXT:
%s

QUESTION: %s

Give a clean factual answer. No hallucination.`

type AnswerConfig struct {
	TopK            int
	MaxContextChars int
	NoDataAnswer    string
}

// Answerer runs the read path: embed the question, retrieve, generate.
type Answerer struct {
	embedder   domain.Embedder
	store      domain.VectorStore
	llm        domain.Generator
	summarizer *summarizer.FrequencySummarizer
	cfg        AnswerConfig
	log        *logger.Logger
}

func NewAnswerer(embedder domain.Embedder, store domain.VectorStore, llm domain.Generator, sum *summarizer.FrequencySummarizer, cfg AnswerConfig, log *logger.Logger) *Answerer {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}
	if cfg.NoDataAnswer == "" {
		cfg.NoDataAnswer = DefaultNoDataAnswer
	}
	if sum == nil {
		sum = summarizer.NewFrequencySummarizer()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Answerer{embedder: embedder, store: store, llm: llm, summarizer: sum, cfg: cfg, log: log.Component("rag")}
}

// Retrieve returns the articles closest to question. Results with no
// similarity at all are dropped; ErrNoContext means nothing is left.
func (a *Answerer) Retrieve(ctx context.Context, question string) ([]domain.QueryResult, error) {
	vec, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	res, err := a.store.Query(ctx, vec, a.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	kept := res[:0]
	for _, r := range res {
		if r.Score > 1e-9 {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil, domain.ErrNoContext
	}
	return kept, nil
}

// Ask answers question from the stored articles. An empty store yields the
// no-data answer, and an LLM failure yields an extractive answer marked
// Degraded; neither is an error.
func (a *Answerer) Ask(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty question", domain.ErrInvalidArgument)
	}
	ans := domain.Answer{Question: question, Sources: []domain.QueryResult{}}

	sources, err := a.Retrieve(ctx, question)
	if errors.Is(err, domain.ErrNoContext) {
		a.log.Info("no context for question", "question", question)
		ans.NoContext = true
		ans.Text = a.cfg.NoDataAnswer
		return ans, nil
	}
	if err != nil {
		return domain.Answer{}, err
	}
	ans.Sources = sources

	prompt := fmt.Sprintf(answerPrompt, buildContext(sources, a.cfg.MaxContextChars), question)
	text, err := a.llm.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = &domain.LLMCallError{Op: "answer", Err: domain.ErrEmptyCompletion}
	}
	if err != nil {
		a.log.Warn("llm answer failed, using extractive answer", "error", err)
		ans.Text = a.summarizer.SummarizeFor(question, joinTexts(sources), summarizer.DefaultSentences)
		ans.Degraded = true
		return ans, nil
	}
	ans.Text = strings.TrimSpace(text)
	return ans, nil
}

// buildContext concatenates the retrieved texts, most similar first, within
// maxChars runes.
func buildContext(results []domain.QueryResult, maxChars int) string {
	var b strings.Builder
	remaining := maxChars
	for i, r := range results {
		sep := ""
		if i > 0 {
			sep = "\n\n"
		}
		header := fmt.Sprintf("%s[%d] %s (%s)\n", sep, i+1, r.Article.Title, r.Article.URL)
		budget := remaining - utf8.RuneCountInString(header)
		if budget <= 0 {
			break
		}
		body := textutil.Truncate(r.Article.CleanedText, budget)
		if body == "" {
			break
		}
		b.WriteString(header)
		b.WriteString(body)
		remaining = budget - utf8.RuneCountInString(body)
	}
	return b.String()
}

func joinTexts(results []domain.QueryResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Article.CleanedText
	}
	return strings.Join(texts, " ")
}

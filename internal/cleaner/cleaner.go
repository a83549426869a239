// Package cleaner strips navigation, ads and broken fragments from raw page
// text with an LLM, falling back to the raw text when the model is unavailable.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"newsrag/internal/domain"
	"newsrag/internal/textutil"
)

const DefaultMaxInputChars = 4000

const promptTemplate = `You are a helpful text-cleaner. Input is raw extracted news HTML text that may contain navigation, ads, captions, timestamps and broken sentences. Produce a clean output with two fields:

TITLE: <a concise title or empty if none>

CONTENT: <cleaned article content, full sentences, no ads, no 'read more' fragments>

Only output the TITLE and CONTENT blocks (no extra commentary).

RAW:

%s

CLEAN OUTPUT:`

// Cleaned is the outcome of a Clean call.
type Cleaned struct {
	Title   string
	Content string
	// FellBack is set when Content is the raw input because the LLM failed.
	FellBack bool
}

type Config struct {
	Enabled       bool
	MaxInputChars int
}

type Cleaner struct {
	llm      domain.Generator
	enabled  bool
	maxInput int
}

// New returns a cleaner. A nil generator behaves like a disabled cleaner.
func New(llm domain.Generator, cfg Config) *Cleaner {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	return &Cleaner{llm: llm, enabled: cfg.Enabled && llm != nil, maxInput: cfg.MaxInputChars}
}

// Clean asks the LLM for a title and cleaned content. On LLM failure it
// returns the raw text with FellBack set together with the *domain.LLMCallError,
// so the caller can log it and carry on.
func (c *Cleaner) Clean(ctx context.Context, raw string) (Cleaned, error) {
	raw = strings.TrimSpace(raw)
	if !c.enabled {
		return Cleaned{Content: raw}, nil
	}

	reply, err := c.llm.Generate(ctx, fmt.Sprintf(promptTemplate, textutil.Truncate(raw, c.maxInput)))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = domain.ErrEmptyCompletion
	}
	if err != nil {
		var lerr *domain.LLMCallError
		if !errors.As(err, &lerr) {
			lerr = &domain.LLMCallError{Op: "clean", Err: err}
		}
		return Cleaned{Content: raw, FellBack: true}, lerr
	}

	title, content := parseReply(reply)
	return Cleaned{Title: title, Content: content}, nil
}

// parseReply splits a reply on the TITLE: and CONTENT: markers. Without both
// markers the whole reply is content.
func parseReply(reply string) (title, content string) {
	reply = strings.TrimSpace(reply)
	_, afterTitle, hasTitle := strings.Cut(reply, "TITLE:")
	if !hasTitle || !strings.Contains(afterTitle, "CONTENT:") {
		if _, after, ok := strings.Cut(reply, "CONTENT:"); ok {
			return "", strings.TrimSpace(after)
		}
		return "", reply
	}
	titlePart, contentPart, _ := strings.Cut(afterTitle, "CONTENT:")
	titlePart = strings.TrimSpace(titlePart)
	if line, _, _ := strings.Cut(titlePart, "\n"); line != "" {
		title = strings.TrimSpace(line)
	}
	return title, strings.TrimSpace(contentPart)
}

package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"newsrag/internal/domain"
)

type stubAsker struct{ answer domain.Answer }

func (s stubAsker) Ask(_ context.Context, q string) (domain.Answer, error) {
	a := s.answer
	a.Question = q
	return a, nil
}

func TestModel_AskAndBrowse(t *testing.T) {
	asker := stubAsker{answer: domain.Answer{
		Text: "AI is transforming industries.",
		Sources: []domain.QueryResult{
			{Article: domain.Article{URL: "https://example.com/a", CleanedText: "AI is transforming industries."}, Score: 0.9},
			{Article: domain.Article{URL: "https://example.com/b", CleanedText: "Other news."}, Score: 0.2},
		},
	}}
	var tm tea.Model = New(asker, "2 articles", 0)
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	m := tm.(Model)
	m.input.SetValue("What is transforming industries?")
	tm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter did not start an ask")
	}
	if !tm.(Model).busy {
		t.Error("model not busy while asking")
	}

	tm, _ = tm.Update(cmd())
	m = tm.(Model)
	if m.answer == nil || m.answer.Question != "What is transforming industries?" {
		t.Fatalf("answer = %+v", m.answer)
	}
	if !strings.Contains(m.render(), "https://example.com/a") {
		t.Errorf("first source not rendered: %s", m.render())
	}

	tm, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = tm.(Model)
	if m.cursor != 1 || !strings.Contains(m.render(), "https://example.com/b") {
		t.Errorf("cursor = %d", m.cursor)
	}
	tm, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if tm.(Model).cursor != 0 {
		t.Errorf("cursor did not wrap")
	}
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Stocks fell. AI is transforming industries. Weather was mild."
	got := highlightBestSentence(text, "what is transforming industries")
	if !strings.Contains(got, "Stocks fell.") || !strings.Contains(got, "Weather was mild.") {
		t.Errorf("got %q", got)
	}
	if highlightBestSentence("", "q") != "" {
		t.Error("empty text should stay empty")
	}
}

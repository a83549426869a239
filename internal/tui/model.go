// Package tui is an interactive console for asking questions about the
// stored news articles.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newsrag/internal/domain"
	"newsrag/internal/textutil"
)

// AskPort is the TUI-facing subset of the RAG answerer.
type AskPort interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
}

// answerMsg carries the result of an asynchronous Ask.
type answerMsg struct {
	answer domain.Answer
	err    error
}

// Model is the Bubble Tea model for the ask console.
type Model struct {
	asker    AskPort
	timeout  time.Duration
	header   string
	input    textinput.Model
	viewport viewport.Model
	answer   *domain.Answer
	status   string
	cursor   int
	busy     bool
	ready    bool
}

// New creates a console. header is shown under the title, e.g. the store size.
func New(asker AskPort, header string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the news and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return Model{
		asker:    asker,
		timeout:  timeout,
		header:   header,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready. Type a question.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		ans, err := m.asker.Ask(ctx, q)
		return answerMsg{answer: ans, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header lines, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.render())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = nil
		} else {
			ans := msg.answer
			m.answer, m.cursor = &ans, 0
			switch {
			case ans.NoContext:
				m.status = "No stored articles match."
			case ans.Degraded:
				m.status = "LLM unavailable, showing extracted sentences."
			default:
				m.status = fmt.Sprintf("Answered from %d source(s). Up/Down to browse.", len(ans.Sources))
			}
		}
		m.viewport.SetContent(m.render())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = fmt.Sprintf("Asking %q ...", q)
				return m, m.ask(q)
			}
		case "down":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "up":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.render())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) sourceCount() int {
	if m.answer == nil {
		return 0
	}
	return len(m.answer.Sources)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("News RAG")
	sub := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.header)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + sub + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) render() string {
	if m.answer == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(answerStyle.Render(m.answer.Text))
	if n := len(m.answer.Sources); n > 0 {
		s := m.answer.Sources[m.cursor]
		fmt.Fprintf(&b, "\n\nSource %d/%d  score=%.3f\n%s\n%s\n\n", m.cursor+1, n, s.Score, s.Article.Title, s.Article.URL)
		b.WriteString(highlightBestSentence(s.Article.CleanedText, m.answer.Question))
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle    = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestSentence emphasises the sentence sharing most words with query.
func highlightBestSentence(text, query string) string {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	qTokens := tokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func tokenSet(s string) map[string]struct{} {
	m := map[string]struct{}{}
	for _, t := range textutil.Words(s) {
		if !textutil.IsStopword(t) {
			m[t] = struct{}{}
		}
	}
	return m
}

func overlap(query map[string]struct{}, sentence string) int {
	score := 0
	for t := range tokenSet(sentence) {
		if _, ok := query[t]; ok {
			score++
		}
	}
	return score
}

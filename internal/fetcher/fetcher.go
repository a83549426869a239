// Package fetcher downloads a news page and extracts its readable text.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"newsrag/internal/domain"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; newsrag/1.0)"
	DefaultMaxBodyKB = 2048

	// minArticleChars is how long <article> text must be to win over <p> joining.
	minArticleChars = 200
)

// ErrNoText is wrapped in a FetchError when a page has no extractable text.
var ErrNoText = errors.New("no text extracted")

// boilerplate elements are removed before extraction.
const boilerplate = "script, style, nav, header, footer, aside, form, noscript"

// Page is the extracted content of a downloaded page.
type Page struct {
	URL   string
	Title string
	Text  string
}

type Config struct {
	Timeout   time.Duration
	UserAgent string
	MaxBodyKB int
}

// Fetcher makes one GET per call. It never retries.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyKB <= 0 {
		cfg.MaxBodyKB = DefaultMaxBodyKB
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBody:   int64(cfg.MaxBodyKB) * 1024,
	}
}

// Fetch downloads url and extracts its title and main text.
// Every failure is returned as a *domain.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if strings.TrimSpace(url) == "" {
		return Page{}, &domain.FetchError{URL: url, Err: domain.ErrInvalidArgument}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, &domain.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, &domain.FetchError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	page, err := Extract(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return Page{}, &domain.FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	page.URL = url
	return page, nil
}

// Extract parses HTML and applies the main-text heuristic: a long enough
// <article>, else the joined <p> texts, else the whole <body>.
func Extract(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	title := extractTitle(doc)
	doc.Find(boilerplate).Remove()

	text := ""
	if art := collapse(doc.Find("article").First().Text()); utf8.RuneCountInString(art) > minArticleChars {
		text = art
	}
	if text == "" {
		var paras []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := collapse(p.Text()); t != "" {
				paras = append(paras, t)
			}
		})
		text = strings.Join(paras, "\n\n")
	}
	if text == "" {
		text = collapse(doc.Find("body").Text())
	}
	if text == "" {
		return Page{}, ErrNoText
	}
	return Page{Title: title, Text: text}, nil
}

func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return collapse(og)
	}
	if t := collapse(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return collapse(doc.Find("h1").First().Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

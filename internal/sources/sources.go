// Package sources turns the configured batch source list into article URLs.
// Plain entries pass through; feed entries are expanded to their newest items.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const DefaultMaxItems = 5

// Source is one configured entry.
type Source struct {
	Name     string
	URL      string
	Feed     bool
	MaxItems int
}

// Entry is a URL to ingest. Err is set when a feed could not be resolved;
// such entries are reported as failures without being fetched.
type Entry struct {
	URL      string
	SourceID string
	Err      error
}

type Resolver struct {
	parser *gofeed.Parser
}

func NewResolver(timeout time.Duration, userAgent string) *Resolver {
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	if timeout > 0 {
		p.Client = &http.Client{Timeout: timeout}
	}
	return &Resolver{parser: p}
}

// Resolve expands srcs in order. It never fails as a whole.
func (r *Resolver) Resolve(ctx context.Context, srcs []Source) []Entry {
	var out []Entry
	for _, s := range srcs {
		id := s.Name
		if id == "" {
			id = s.URL
		}
		if !s.Feed {
			out = append(out, Entry{URL: s.URL, SourceID: id})
			continue
		}
		links, err := r.feedLinks(ctx, s)
		if err != nil {
			out = append(out, Entry{URL: s.URL, SourceID: id, Err: err})
			continue
		}
		for _, l := range links {
			out = append(out, Entry{URL: l, SourceID: id})
		}
	}
	return out
}

func (r *Resolver) feedLinks(ctx context.Context, s Source) ([]string, error) {
	feed, err := r.parser.ParseURLWithContext(s.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", s.URL, err)
	}
	items := make([]*gofeed.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it != nil && strings.TrimSpace(it.Link) != "" {
			items = append(items, it)
		}
	}
	// newest first; undated items keep feed order after dated ones
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedParsed, items[j].PublishedParsed
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})

	limit := s.MaxItems
	if limit <= 0 {
		limit = DefaultMaxItems
	}
	if len(items) > limit {
		items = items[:limit]
	}
	links := make([]string, len(items))
	for i, it := range items {
		links[i] = strings.TrimSpace(it.Link)
	}
	return links, nil
}

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rss = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test</title>
<item><title>old</title><link>https://news.test/old</link><pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate></item>
<item><title>new</title><link>https://news.test/new</link><pubDate>Wed, 03 Jan 2024 10:00:00 GMT</pubDate></item>
<item><title>mid</title><link>https://news.test/mid</link><pubDate>Tue, 02 Jan 2024 10:00:00 GMT</pubDate></item>
<item><title>nolink</title></item>
</channel></rss>`

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	defer srv.Close()

	r := NewResolver(5*time.Second, "test")
	got := r.Resolve(context.Background(), []Source{
		{URL: "https://example.com/a"},
		{Name: "test-feed", URL: srv.URL + "/feed.xml", Feed: true, MaxItems: 2},
		{Name: "broken", URL: srv.URL + "/missing.xml", Feed: true},
	})

	want := []Entry{
		{URL: "https://example.com/a", SourceID: "https://example.com/a"},
		{URL: "https://news.test/new", SourceID: "test-feed"},
		{URL: "https://news.test/mid", SourceID: "test-feed"},
	}
	if len(got) != len(want)+1 {
		t.Fatalf("got %d entries: %+v", len(got), got)
	}
	for i, w := range want {
		if got[i].URL != w.URL || got[i].SourceID != w.SourceID || got[i].Err != nil {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], w)
		}
	}
	last := got[len(got)-1]
	if last.Err == nil || last.SourceID != "broken" {
		t.Errorf("broken feed entry = %+v", last)
	}
}

package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newsrag/internal/domain"
)

func TestExtract(t *testing.T) {
	long := strings.Repeat("Markets rallied as central banks held rates steady. ", 6)
	tests := []struct {
		name      string
		html      string
		wantTitle string
		wantText  string
	}{
		{
			name:      "long article wins",
			html:      `<html><head><title>T</title><meta property="og:title" content="OG Title"></head><body><nav>Menu</nav><article>` + long + `<script>var x=1;</script></article><p>teaser</p></body></html>`,
			wantTitle: "OG Title",
			wantText:  strings.TrimSpace(long),
		},
		{
			name:      "short article falls back to paragraphs",
			html:      `<html><head><title>Page Title</title></head><body><article>tiny</article><p>First para.</p><p>  </p><p>Second   para.</p><footer><p>Copyright</p></footer></body></html>`,
			wantTitle: "Page Title",
			wantText:  "First para.\n\nSecond para.",
		},
		{
			name:      "body text with h1 title",
			html:      `<html><body><h1>Headline</h1> <div>Just a div with text.</div></body></html>`,
			wantTitle: "Headline",
			wantText:  "Headline Just a div with text.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Extract(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if page.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", page.Title, tt.wantTitle)
			}
			if page.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", page.Text, tt.wantText)
			}
		})
	}
}

func TestExtract_NoText(t *testing.T) {
	_, err := Extract(strings.NewReader(`<html><body><script>only()</script><nav>menu</nav></body></html>`))
	if !errors.Is(err, ErrNoText) {
		t.Errorf("err = %v, want ErrNoText", err)
	}
}

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`<html><head><title>Hello</title></head><body><p>AI is transforming industries.</p></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "test-agent"})

	page, err := f.Fetch(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if page.Title != "Hello" || page.Text != "AI is transforming industries." || page.URL != srv.URL+"/ok" {
		t.Errorf("page = %+v", page)
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", fe.StatusCode)
	}
}

func TestFetch_TransportError(t *testing.T) {
	f := New(Config{})
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 0 {
		t.Errorf("err = %v, want transport FetchError", err)
	}
}

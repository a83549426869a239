package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsrag/internal/domain"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "x",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestNewClient_MissingKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestGenerate(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "  AI is transforming industries.  ")
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "test-token", Model: "m"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	out, err := c.Generate(context.Background(), "question")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "AI is transforming industries." {
		t.Errorf("out = %q", out)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"server error", http.StatusBadRequest, ""},
		{"empty completion", http.StatusOK, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.content)
			defer srv.Close()

			c, _ := NewClient(Config{BaseURL: srv.URL, APIKey: "test-token", Model: "m"})
			_, err := c.Generate(context.Background(), "q")

			var callErr *domain.LLMCallError
			if !errors.As(err, &callErr) {
				t.Fatalf("err = %v, want *LLMCallError", err)
			}
		})
	}
}

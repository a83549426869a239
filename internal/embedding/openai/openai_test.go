package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("NEWSRAG_TEST_EMBED_KEY", "")
	if _, err := NewClient(Config{APIKeyEnv: "NEWSRAG_TEST_EMBED_KEY"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestEmbed(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"m"}`))
	}))
	defer srv.Close()

	t.Setenv("NEWSRAG_TEST_EMBED_KEY", "k")
	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", APIKeyEnv: "NEWSRAG_TEST_EMBED_KEY", Model: "all-minilm"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.Dimension() != 0 {
		t.Errorf("dimension before first call = %d", c.Dimension())
	}

	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 || c.Dimension() != 3 {
		t.Errorf("vec=%v dim=%d", vec, c.Dimension())
	}
	if gotModel != "all-minilm" {
		t.Errorf("model sent = %q", gotModel)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	t.Setenv("NEWSRAG_TEST_EMBED_KEY", "k")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "NEWSRAG_TEST_EMBED_KEY"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := c.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

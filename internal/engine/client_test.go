package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mashcatg/visa-cracked/internal/config"

	"go.uber.org/zap"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  \n{\"a\":1}\n  ", `{"a":1}`},
		{"", ""},
	}

	for _, tc := range cases {
		if got := StripCodeFences(tc.in); got != tc.want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func candidateBody(text string) string {
	raw, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(raw)
}

func newTestEngine(baseURL string) *Client {
	return New(config.EngineConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, zap.NewNop())
}

// TestGenerate checks the request shape sent to the engine and that fenced
// output comes back stripped.
func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("api key not passed")
		}

		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				Temperature     float64 `json:"temperature"`
				MaxOutputTokens int     `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 || req.Contents[0].Parts[0].Text != "evaluate this" {
			t.Errorf("unexpected contents: %+v", req.Contents)
		}
		if req.GenerationConfig.Temperature != 0.3 || req.GenerationConfig.MaxOutputTokens != 4096 {
			t.Errorf("unexpected generation config: %+v", req.GenerationConfig)
		}

		w.Write([]byte(candidateBody("```json\n{\"overall_score\": 70}\n```")))
	}))
	defer srv.Close()

	got, err := newTestEngine(srv.URL).Generate(context.Background(), "evaluate this")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != `{"overall_score": 70}` {
		t.Fatalf("output = %q", got)
	}
}

func TestGenerateMissingKey(t *testing.T) {
	client := New(config.EngineConfig{BaseURL: "http://example.invalid"}, zap.NewNop())
	_, err := client.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestEngine(srv.URL).Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	_, err := newTestEngine(srv.URL).Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestGenerateEmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	_, err := newTestEngine(srv.URL).Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

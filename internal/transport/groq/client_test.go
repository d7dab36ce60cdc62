package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmatch/internal/domain"
	"github.com/kailas-cloud/bookmatch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterUpstreamMetrics()
	os.Exit(m.Run())
}

// chatResponse mirrors the OpenAI-compatible chat completion response.
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		resp := chatResponse{ID: "cmpl-1", Object: "chat.completion", Model: "test-model"}
		resp.Choices = append(resp.Choices, struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{FinishReason: "stop"})
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = content
		resp.Usage.PromptTokens = 50
		resp.Usage.TotalTokens = 80

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	return NewClient(&Config{
		APIKey:    "test-key",
		BaseURL:   baseURL,
		Model:     "test-model",
		MaxTokens: 100,
		Timeout:   2 * time.Second,
		Logger:    zap.NewNop(),
	})
}

func TestExtractKeywords(t *testing.T) {
	srv := newChatServer(t, "science fiction, adventure, space, Survival., mystery")
	c := newTestClient(srv.URL)

	got, err := c.ExtractKeywords(context.Background(), "A desert planet epic.")
	if err != nil {
		t.Fatalf("ExtractKeywords failed: %v", err)
	}

	want := []string{"science fiction", "adventure", "space", "survival", "mystery"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keywords = %v, want %v", got, want)
	}
}

func TestExtractKeywords_APIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "over capacity"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ExtractKeywords(context.Background(), "anything")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestGenerateExplanation(t *testing.T) {
	srv := newChatServer(t, "Both follow reluctant heroes through hostile desert worlds.")
	c := newTestClient(srv.URL)

	got, err := c.GenerateExplanation(context.Background(), "Dune", "desc a", "Hyperion", "desc b")
	if err != nil {
		t.Fatalf("GenerateExplanation failed: %v", err)
	}
	if got != "Both follow reluctant heroes through hostile desert worlds." {
		t.Errorf("unexpected explanation: %q", got)
	}
}

func TestCleanKeywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "strips punctuation and case",
			input: "Fantasy, MAGIC., quest!",
			want:  []string{"fantasy", "magic", "quest"},
		},
		{
			name:  "drops short tokens",
			input: "ya, war era, ai",
			want:  []string{"war era"},
		},
		{
			name:  "drops terms over two words",
			input: "coming of age story, romance",
			want:  []string{"romance"},
		},
		{
			name:  "empty reply",
			input: "",
			want:  []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanKeywords(tc.input); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("cleanKeywords(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

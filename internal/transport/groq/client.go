// Package groq is the hosted language-model client, speaking the
// OpenAI-compatible chat-completions API exposed by Groq.
package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmatch/internal/domain"
	"github.com/kailas-cloud/bookmatch/internal/metrics"
)

const (
	keywordSystemPrompt = "You are a literary expert. Extract 8-10 single-word or two-word key themes, " +
		"genres, and keywords from book descriptions. Return ONLY a comma-separated list with NO periods " +
		"or extra punctuation. Example: science fiction, adventure, space, survival, mystery"

	explanationSystemPrompt = "You are a literary expert. Explain why two books are similar in 1-2 concise sentences."

	keywordTemperature     = 0.3
	explanationTemperature = 0.5
)

// Client calls the chat-completions API for keyword extraction and
// similarity explanations. Output is non-deterministic; callers must not
// assume stable text for identical inputs.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *zap.Logger
}

// Config holds the language-model client settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewClient creates a Groq chat-completions client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		api:       openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
}

// ExtractKeywords asks the model for 8-10 theme/genre terms for a book
// description and cleans the comma-separated reply.
func (c *Client) ExtractKeywords(ctx context.Context, description string) ([]string, error) {
	content, err := c.complete(ctx, "keywords", keywordSystemPrompt,
		"Extract keywords from this book description:\n\n"+description,
		keywordTemperature,
	)
	if err != nil {
		return nil, err
	}
	return cleanKeywords(content), nil
}

// GenerateExplanation asks the model why two books are similar.
func (c *Client) GenerateExplanation(ctx context.Context, titleA, descA, titleB, descB string) (string, error) {
	user := fmt.Sprintf(
		"Why are these two books similar?\n\nBook 1: %s\nDescription: %s\n\nBook 2: %s\nDescription: %s",
		titleA, descA, titleB, descB,
	)
	return c.complete(ctx, "explanation", explanationSystemPrompt, user, explanationTemperature)
}

// HealthCheck verifies API availability via ListModels.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, op, system, user string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(op, "error").Inc()
		return "", parseAPIError(err)
	}

	metrics.ModelRequestsTotal.WithLabelValues(op, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.ModelTokensTotal.WithLabelValues(op, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.ModelTokensTotal.WithLabelValues(op, "total").Add(float64(resp.Usage.TotalTokens))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrModelUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// cleanKeywords splits a comma-separated model reply into usable terms:
// lower-cased, trimmed, punctuation stripped, only 1-2 word terms longer
// than two characters.
func cleanKeywords(content string) []string {
	parts := strings.Split(content, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		k := strings.ToLower(strings.TrimSpace(p))
		k = strings.Map(func(r rune) rune {
			switch r {
			case '.', '!', '?', ';':
				return -1
			}
			return r
		}, k)
		if len(k) > 2 && len(strings.Fields(k)) <= 2 {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrModelUnavailable.
func parseAPIError(err error) error {
	wrap := domain.ErrModelUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("model API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("model API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("model API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("model request failed: %w", wrap)
}

// extractDetail pulls the "error.message" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return ""
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultLLMBase  = "https://api.openai.com/v1"
	defaultLLMModel = "gpt-4o-mini"
	defaultTimeout  = 60 * time.Second
	defaultMaxTok   = 512
)

// Config configures the OpenAI-compatible generation provider.
type Config struct {
	// APIKey is the bearer token used to authenticate against the API.
	APIKey string

	// BaseURL overrides the API endpoint.  Useful for local models (Ollama),
	// Azure OpenAI, or any other OpenAI-compatible endpoint.
	// Defaults to https://api.openai.com/v1 when empty.
	BaseURL string

	// Model is the chat model to use. Defaults to gpt-4o-mini when empty.
	Model string

	// SystemPrompt is the persona instruction sent as the system message on
	// every call. Empty means no system message.
	SystemPrompt string

	// MaxTokens caps the reply length. Defaults to 512 when zero.
	MaxTokens int

	// Timeout is the HTTP request timeout.  Defaults to 60 s — generation is
	// the slowest external call in the pipeline.
	Timeout time.Duration
}

// openAIGenerator implements Generator using the OpenAI chat completions API.
type openAIGenerator struct {
	cfg    Config
	client *http.Client
}

// New returns a Generator backed by the OpenAI (or compatible) chat API.
// The returned generator is safe for concurrent use.
func New(cfg Config) Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultLLMBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultLLMModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTok
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &openAIGenerator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal OpenAI wire types ---

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiRequest struct {
	Model     string       `json:"model"`
	Messages  []oaiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type oaiChoice struct {
	Message      oaiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// Generate sends the prompt to the LLM and returns the reply text.
func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]oaiMessage, 0, 2)
	if g.cfg.SystemPrompt != "" {
		messages = append(messages, oaiMessage{Role: "system", Content: g.cfg.SystemPrompt})
	}
	messages = append(messages, oaiMessage{Role: "user", Content: prompt})

	body := oaiRequest{
		Model:     g.cfg.Model,
		Messages:  messages,
		MaxTokens: g.cfg.MaxTokens,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/chat/completions",
		bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("llm: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response body: %w", err)
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return "", fmt.Errorf("llm: decode API response: %w", err)
	}

	if oaiResp.Error != nil {
		return "", fmt.Errorf("llm: API error (%s): %s", oaiResp.Error.Type, oaiResp.Error.Message)
	}

	if len(oaiResp.Choices) == 0 {
		return "", fmt.Errorf("llm: no choices returned (HTTP %d)", resp.StatusCode)
	}

	return oaiResp.Choices[0].Message.Content, nil
}

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTranslateBase = "http://localhost:5000"
	defaultTimeout       = 30 * time.Second
)

// Config configures the LibreTranslate-compatible provider.
type Config struct {
	// BaseURL is the root of the translation API, e.g. http://localhost:5000
	// for a self-hosted LibreTranslate or https://libretranslate.com for the
	// hosted service.
	BaseURL string

	// APIKey is the optional API key sent with each request. Self-hosted
	// instances usually run without one.
	APIKey string

	// Pivot is the pivot language code. Defaults to DefaultPivot ("en").
	Pivot string

	// Timeout is the HTTP request timeout. Defaults to 30 s.
	Timeout time.Duration
}

// libreProvider implements Provider against the LibreTranslate HTTP API.
// A single /translate call with source "auto" both detects the language and
// translates, which maps one-to-one onto ToPivot.
type libreProvider struct {
	cfg    Config
	client *http.Client
}

// New returns a Provider backed by a LibreTranslate-compatible endpoint.
// The returned provider is safe for concurrent use.
func New(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTranslateBase
	}
	if cfg.Pivot == "" {
		cfg.Pivot = DefaultPivot
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &libreProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal LibreTranslate wire types ---

type ltRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type ltResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	} `json:"detectedLanguage,omitempty"`
	Error string `json:"error,omitempty"`
}

func (p *libreProvider) ToPivot(ctx context.Context, text string) (string, string, error) {
	// Whitespace-only input is a pass-through, not an error: there is nothing
	// to detect, so the conversation is assumed to already be in the pivot.
	if strings.TrimSpace(text) == "" {
		return "", p.cfg.Pivot, nil
	}

	resp, err := p.translate(ctx, text, "auto", p.cfg.Pivot)
	if err != nil {
		return "", "", err
	}

	lang := p.cfg.Pivot
	if resp.DetectedLanguage != nil && resp.DetectedLanguage.Language != "" {
		lang = resp.DetectedLanguage.Language
	}
	return resp.TranslatedText, lang, nil
}

func (p *libreProvider) FromPivot(ctx context.Context, pivotText, langCode string) (string, error) {
	if langCode == "" || langCode == p.cfg.Pivot {
		return pivotText, nil
	}

	resp, err := p.translate(ctx, pivotText, p.cfg.Pivot, langCode)
	if err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

// translate performs one /translate call. No retries: the pipeline treats
// any failure as terminal for the message being processed.
func (p *libreProvider) translate(ctx context.Context, text, source, target string) (*ltResponse, error) {
	body := ltRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: p.cfg.APIKey,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("translate: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/translate",
		bytes.NewReader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("translate: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("translate: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("translate: read response body: %w", err)
	}

	var ltResp ltResponse
	if err := json.Unmarshal(respBody, &ltResp); err != nil {
		return nil, fmt.Errorf("translate: decode API response (HTTP %d): %w", resp.StatusCode, err)
	}

	if ltResp.Error != "" {
		return nil, fmt.Errorf("translate: API error (HTTP %d): %s", resp.StatusCode, ltResp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate: unexpected HTTP status %d", resp.StatusCode)
	}

	return &ltResp, nil
}

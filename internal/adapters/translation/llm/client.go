// Package llm translates through a chat-completion model served by
// OpenRouter or a local Ollama.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"modmanager/internal/adapters/translation"
	"modmanager/internal/domain"
	"modmanager/internal/ports"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"

	defaultOpenRouter = "https://openrouter.ai"
	defaultOllama     = "http://localhost:11434"
)

type Client struct {
	ProviderType string
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	http         *resty.Client
}

func New(providerType, apiKey, baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		ProviderType: strings.ToLower(providerType),
		APIKey:       apiKey,
		BaseURL:      baseURL,
		Model:        model,
		http:         translation.NewHTTPClient(timeout),
	}
}

func (c *Client) Name() string { return c.ProviderType }

func (c *Client) Translate(ctx context.Context, req ports.TranslateRequest) ([]domain.Translation, error) {
	masked := make([]string, len(req.Texts))
	unmask := make([]func(string) string, len(req.Texts))
	for i, t := range req.Texts {
		masked[i], unmask[i] = maskTokens(t)
	}
	data, err := newPromptData(masked, req.SourceLang, req.TargetLang)
	if err != nil {
		return nil, err
	}
	sys, err := render(systemTpl, data)
	if err != nil {
		return nil, err
	}
	user, err := render(userTpl, data)
	if err != nil {
		return nil, err
	}

	var content string
	switch c.ProviderType {
	case ProviderOpenRouter:
		content, err = c.chatOpenRouter(ctx, sys, user)
	case ProviderOllama:
		content, err = c.chatOllama(ctx, sys, user)
	default:
		return nil, &domain.TranslationError{Kind: domain.ErrConfiguration, Message: "unsupported provider: " + c.ProviderType}
	}
	if err != nil {
		return nil, err
	}

	r, err := extractReply(content, len(req.Texts))
	if err != nil {
		return nil, &domain.TranslationError{Kind: domain.ErrRejected, Category: "unparseable_reply", Message: err.Error()}
	}
	texts := r.texts()
	if len(texts) != len(req.Texts) {
		return nil, &domain.TranslationError{
			Kind:     domain.ErrRejected,
			Category: "count_mismatch",
			Message:  fmt.Sprintf("model returned %d translations for %d texts", len(texts), len(req.Texts)),
		}
	}
	detected := strings.ToLower(strings.TrimSpace(r.DetectedLanguage))
	if detected == "" {
		detected = req.SourceLang
	}
	out := make([]domain.Translation, len(texts))
	for i, t := range texts {
		out[i] = domain.Translation{Text: unmask[i](strings.TrimSpace(t)), DetectedLanguage: detected}
	}
	return out, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openRouterError struct {
	Error struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) chatOpenRouter(ctx context.Context, system, user string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultOpenRouter
	}
	url := openRouterURL(base, "/chat/completions")
	schema := map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "translations",
			"strict": true,
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"translations":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"detected_language": map[string]any{"type": "string"},
				},
				"required":             []string{"translations", "detected_language"},
				"additionalProperties": false,
			},
		},
	}
	body := map[string]any{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature":     c.Temperature,
		"response_format": schema,
	}
	post := func() (*resty.Response, *chatResponse, *openRouterError, error) {
		var resp chatResponse
		var apiErr openRouterError
		rr, err := c.http.R().SetContext(ctx).
			SetHeader("Authorization", "Bearer "+c.APIKey).
			SetHeader("X-Title", "modmanager").
			SetHeader("Content-Type", "application/json").
			SetBody(body).SetResult(&resp).SetError(&apiErr).
			Post(url)
		return rr, &resp, &apiErr, err
	}
	rr, resp, apiErr, err := post()
	if err != nil {
		return "", translation.FromTransport(ctx, err)
	}
	// models without structured output reject json_schema
	if rr.StatusCode() == 400 {
		body["response_format"] = map[string]string{"type": "json_object"}
		rr, resp, apiErr, err = post()
		if err != nil {
			return "", translation.FromTransport(ctx, err)
		}
	}
	if rr.IsError() {
		return "", translation.FromResponse(rr, apiErr.Error.Type, apiErr.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", &domain.TranslationError{Kind: domain.ErrRejected, Status: rr.StatusCode(), Message: "no choices returned"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) chatOllama(ctx context.Context, system, user string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultOllama
	}
	url := strings.TrimRight(base, "/") + "/api/chat"
	body := map[string]any{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"stream":  false,
		"format":  "json",
		"options": map[string]any{"temperature": c.Temperature},
	}
	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	rr, err := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).SetResult(&resp).SetError(&apiErr).
		Post(url)
	if err != nil {
		return "", translation.FromTransport(ctx, err)
	}
	if rr.IsError() {
		return "", translation.FromResponse(rr, "", apiErr.Error)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

// openRouterURL builds a URL for OpenRouter whether base contains /api/v1 or not.
func openRouterURL(base, tail string) string {
	b := strings.TrimRight(base, "/")
	if idx := strings.Index(b, "/api/v1"); idx >= 0 {
		return b[:idx+len("/api/v1")] + tail
	}
	return b + "/api/v1" + tail
}

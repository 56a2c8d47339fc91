// Package google talks to the Cloud Translation v2 REST API.
package google

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"modmanager/internal/adapters/translation"
	"modmanager/internal/domain"
	"modmanager/internal/ports"
)

const DefaultEndpoint = "https://translation.googleapis.com"

type Client struct {
	APIKey  string
	BaseURL string
	http    *resty.Client
}

func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultEndpoint
	}
	return &Client{APIKey: apiKey, BaseURL: strings.TrimRight(baseURL, "/"), http: translation.NewHTTPClient(timeout)}
}

func (c *Client) Name() string { return "google" }

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (c *Client) Translate(ctx context.Context, req ports.TranslateRequest) ([]domain.Translation, error) {
	body := map[string]any{
		"q":      req.Texts,
		"target": req.TargetLang,
		"format": "text",
	}
	if req.SourceLang != "" {
		body["source"] = req.SourceLang
	}
	var resp translateResponse
	var apiErr errorResponse
	rr, err := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", c.APIKey).
		SetBody(body).
		SetResult(&resp).
		SetError(&apiErr).
		Post(c.BaseURL + "/language/translate/v2")
	if err != nil {
		return nil, translation.FromTransport(ctx, err)
	}
	if rr.IsError() {
		reason := apiErr.Error.Status
		if len(apiErr.Error.Errors) > 0 && apiErr.Error.Errors[0].Reason != "" {
			reason = apiErr.Error.Errors[0].Reason
		}
		return nil, translation.FromResponse(rr, reason, apiErr.Error.Message)
	}
	if len(resp.Data.Translations) != len(req.Texts) {
		return nil, &domain.TranslationError{
			Kind:    domain.ErrRejected,
			Status:  rr.StatusCode(),
			Message: fmt.Sprintf("got %d translations for %d texts", len(resp.Data.Translations), len(req.Texts)),
		}
	}
	out := make([]domain.Translation, len(resp.Data.Translations))
	for i, t := range resp.Data.Translations {
		detected := t.DetectedSourceLanguage
		if detected == "" {
			detected = req.SourceLang
		}
		out[i] = domain.Translation{Text: html.UnescapeString(t.TranslatedText), DetectedLanguage: strings.ToLower(detected)}
	}
	return out, nil
}

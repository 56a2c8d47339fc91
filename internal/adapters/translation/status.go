// Package translation holds what the remote translation backends share:
// the HTTP client setup and the mapping from HTTP failures to domain errors.
package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"modmanager/internal/domain"
)

func NewHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return resty.New().SetTimeout(timeout)
}

// Kind maps an HTTP status and optional backend reason to an error kind.
func Kind(status int, reason string) error {
	switch strings.TrimSpace(reason) {
	case "rateLimitExceeded", "userRateLimitExceeded", "RESOURCE_EXHAUSTED":
		return domain.ErrThrottled
	case "dailyLimitExceeded", "quotaExceeded", "insufficient_quota":
		return domain.ErrQuotaExceeded
	case "keyInvalid", "keyExpired", "invalid_api_key":
		return domain.ErrConfiguration
	}
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ErrThrottled
	case status == http.StatusPaymentRequired:
		return domain.ErrQuotaExceeded
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
		return domain.ErrConfiguration
	case status == http.StatusRequestTimeout, status >= 500:
		return domain.ErrTransient
	default:
		return domain.ErrRejected
	}
}

// FromResponse builds the error for a non-2xx response.
func FromResponse(rr *resty.Response, reason, message string) *domain.TranslationError {
	status := rr.StatusCode()
	if message == "" {
		message = abbreviate(rr.String(), 500)
	}
	te := &domain.TranslationError{
		Kind:     Kind(status, reason),
		Status:   status,
		Category: reason,
		Message:  message,
	}
	if errors.Is(te.Kind, domain.ErrThrottled) {
		te.RetryAfter = RetryAfter(rr.Header().Get("Retry-After"), rr.Body())
	}
	return te
}

// FromTransport wraps a failure to get any response at all.
func FromTransport(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &domain.TranslationError{Kind: domain.ErrTransient, Message: err.Error()}
}

// RetryAfter reads the delay a throttled backend asked for, from the
// Retry-After header or a Google RetryInfo detail. Zero when absent.
func RetryAfter(header string, body []byte) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return 0
	}
	for _, d := range errResp.Error.Details {
		if strings.Contains(d.Type, "RetryInfo") && d.RetryDelay != "" {
			if secs, err := strconv.ParseFloat(strings.TrimSuffix(d.RetryDelay, "s"), 64); err == nil {
				return time.Duration(secs * float64(time.Second))
			}
		}
	}
	return 0
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

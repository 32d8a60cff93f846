package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

const defaultBaseDelay = 500 * time.Millisecond

type retryConfig struct {
	maxAttempts int
	baseDelay   time.Duration
}

func newRetryConfig(maxAttempts int) retryConfig {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return retryConfig{maxAttempts: maxAttempts, baseDelay: defaultBaseDelay}
}

// withRetry runs fn with bounded exponential backoff. Only transient
// upstream failures are retried; client errors and context expiry are not.
func withRetry(ctx context.Context, cfg retryConfig, log *zap.Logger, op string, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !isRetryable(err) || attempt == cfg.maxAttempts {
			return err
		}

		delay := cfg.baseDelay << (attempt - 1)
		log.Warn("upstream call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}

	// Plain transport errors (connection refused, reset) are worth a retry.
	return true
}

// wrapUpstreamErr maps an exhausted upstream error onto the domain sentinel
// the callers branch on: deadline expiry becomes ErrUpstreamTimeout,
// everything else wraps the given provider sentinel.
func wrapUpstreamErr(err error, sentinel error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request timed out: %w", op, domain.ErrUpstreamTimeout)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractErrorMessage(reqErr.Body); detail != "" {
			return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, detail, sentinel)
		}
		return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, string(reqErr.Body), sentinel)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	return fmt.Errorf("%s request failed: %v: %w", op, err, sentinel)
}

// extractErrorMessage pulls a readable message out of a JSON error body.
func extractErrorMessage(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return parsed.Detail
}

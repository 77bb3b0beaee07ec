package router

import (
	"context"
	"errors"
	"strings"

	"github.com/dmarti/chatbridge/internal/llm"
)

// ErrorKind classifies provider errors for retry/fallback decisions.
type ErrorKind int

const (
	KindRetryable  ErrorKind = iota // generic transient 5xx
	KindRateLimit                   // 429, should respect Retry-After
	KindOverloaded                  // 529 or "overloaded" in body
	KindTimeout                     // request timeout / deadline exceeded
	KindAuth                        // 401, 403
	KindBilling                     // 402 or quota exhausted
	KindContext                     // context_length_exceeded
	KindBadRequest                  // 400
	KindFatal                       // everything else
)

func (k ErrorKind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindRateLimit:
		return "rate_limit"
	case KindOverloaded:
		return "overloaded"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindBilling:
		return "billing"
	case KindContext:
		return "context"
	case KindBadRequest:
		return "bad_request"
	default:
		return "fatal"
	}
}

// Retryable reports whether the kind warrants another attempt on the same
// provider. Auth/billing/context/bad-request failures will not heal on retry.
func (k ErrorKind) Retryable() bool {
	return k == KindRetryable || k == KindRateLimit || k == KindOverloaded || k == KindTimeout
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		// transport-level failure (conn refused, DNS, reset) - worth a retry
		return KindRetryable
	}

	bodyLower := strings.ToLower(apiErr.Body)

	if strings.Contains(bodyLower, "context_length_exceeded") ||
		strings.Contains(bodyLower, "maximum context length") {
		return KindContext
	}

	if apiErr.StatusCode == 402 ||
		strings.Contains(bodyLower, "billing") ||
		strings.Contains(bodyLower, "insufficient_quota") ||
		strings.Contains(bodyLower, "payment required") {
		return KindBilling
	}

	if apiErr.StatusCode == 429 ||
		strings.Contains(bodyLower, "rate_limit") ||
		strings.Contains(bodyLower, "rate limit") ||
		strings.Contains(bodyLower, "too many requests") {
		return KindRateLimit
	}

	if apiErr.StatusCode == 529 || strings.Contains(bodyLower, "overloaded") {
		return KindOverloaded
	}

	if strings.Contains(bodyLower, "timeout") || strings.Contains(bodyLower, "timed out") {
		return KindTimeout
	}

	switch apiErr.StatusCode {
	case 400:
		return KindBadRequest
	case 401, 403:
		return KindAuth
	case 500, 502, 503, 521, 522, 523, 524:
		return KindRetryable
	default:
		return KindFatal
	}
}

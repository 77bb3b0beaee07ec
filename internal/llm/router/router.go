package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/llm"
	"github.com/dmarti/chatbridge/internal/metrics"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

// Router walks an ordered provider chain with per-provider retry, exponential
// backoff and rate-limit cooldowns. It is the only thing the rest of the
// service calls for completions.
type Router struct {
	order    []llm.Provider
	policy   Policy
	cooldown *cooldownTracker
	logger   *logger_i.Logger
}

type Policy struct {
	MaxRetries    int
	BackoffStart  time.Duration
	BackoffCeil   time.Duration
	CooldownFloor time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    config.ProviderMaxRetries,
		BackoffStart:  config.ProviderBackoffStart,
		BackoffCeil:   config.ProviderBackoffCeil,
		CooldownFloor: config.ProviderCooldownFloor,
	}
}

var ErrNoProviders = errors.New("no providers configured")

// New builds a router over the given providers in fallback order. Nil entries
// (providers disabled for lack of credentials) are skipped.
func New(policy Policy, providers ...llm.Provider) *Router {
	r := &Router{
		policy:   policy,
		cooldown: newCooldownTracker(),
		logger:   logger_i.NewLogger("ProviderRouter"),
	}
	for _, p := range providers {
		if p != nil {
			r.order = append(r.order, p)
		}
	}
	r.logger.Info("Provider chain ready", "providers", len(r.order))
	return r
}

func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.order))
	for _, p := range r.order {
		names = append(names, p.Name())
	}
	return names
}

// Complete tries each provider in order until one answers. The returned error
// is the last provider failure; callers that must always answer pair this
// with Fallback.
func (r *Router) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	if len(r.order) == 0 {
		return llm.CompletionResult{}, ErrNoProviders
	}

	var lastErr error
	for _, provider := range r.order {
		name := provider.Name()
		if r.cooldown.active(name) {
			r.logger.Debug("Skipping provider in cooldown", "provider", name)
			continue
		}

		result, err := r.completeWithRetry(ctx, provider, req)
		if err == nil {
			r.cooldown.clear(name)
			metrics.CaptureCompletionOutcome(name, "ok")
			return result, nil
		}
		if ctx.Err() != nil {
			return llm.CompletionResult{}, fmt.Errorf("completion cancelled: %w", ctx.Err())
		}
		metrics.CaptureCompletionOutcome(name, "failed")
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("every provider is in cooldown")
	}
	return llm.CompletionResult{}, fmt.Errorf("all providers exhausted: %w", lastErr)
}

// Fallback is the canned degraded response used when the whole chain failed.
// Chat traffic never surfaces a provider error to the end user.
func (r *Router) Fallback(req llm.CompletionRequest) llm.CompletionResult {
	metrics.CaptureCompletionOutcome("fallback", "degraded")
	return llm.CompletionResult{
		Text:         config.FallbackAnswer,
		Provider:     "fallback",
		FinishReason: "fallback",
	}
}

func (r *Router) completeWithRetry(ctx context.Context, provider llm.Provider, req llm.CompletionRequest) (llm.CompletionResult, error) {
	name := provider.Name()
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, config.ProviderCallTimeout)
		result, err := provider.Complete(callCtx, req)
		cancel()
		metrics.CaptureExecutionMetrics("provider_"+name, time.Since(start))

		if err == nil {
			return result, nil
		}
		lastErr = err
		kind := classify(err)

		// Rate limit: park the provider and move on - retrying now just burns
		// the remaining quota window.
		if kind == KindRateLimit {
			r.cooldown.set(name, r.cooldownFor(err))
			r.logger.Warn("Provider rate limited, entering cooldown", "provider", name, "error", err)
			return llm.CompletionResult{}, err
		}

		if !kind.Retryable() {
			r.logger.Warn("Non-retryable provider error", "provider", name, "kind", kind.String(), "error", err)
			return llm.CompletionResult{}, err
		}

		if attempt >= r.policy.MaxRetries {
			r.logger.Warn("Exhausted retries for provider", "provider", name, "attempts", attempt+1, "error", err)
			break
		}

		wait := r.backoff(attempt, err)
		r.logger.Info("Retrying provider", "provider", name, "attempt", attempt+1, "kind", kind.String(), "backoff", wait)
		select {
		case <-ctx.Done():
			return llm.CompletionResult{}, fmt.Errorf("cancelled during backoff: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return llm.CompletionResult{}, lastErr
}

// backoff is min(start * 2^attempt, ceil), stretched to honor Retry-After.
func (r *Router) backoff(attempt int, err error) time.Duration {
	wait := r.policy.BackoffStart
	for i := 0; i < attempt; i++ {
		wait *= 2
		if wait > r.policy.BackoffCeil {
			wait = r.policy.BackoffCeil
			break
		}
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfterSec > 0 {
		serverDelay := time.Duration(apiErr.RetryAfterSec) * time.Second
		if serverDelay > r.policy.BackoffCeil {
			serverDelay = r.policy.BackoffCeil
		}
		if serverDelay > wait {
			wait = serverDelay
		}
	}
	return wait
}

func (r *Router) cooldownFor(err error) time.Duration {
	d := r.policy.CooldownFloor
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfterSec > 0 {
		serverDelay := time.Duration(apiErr.RetryAfterSec) * time.Second
		if serverDelay > d {
			d = serverDelay
		}
	}
	return d
}

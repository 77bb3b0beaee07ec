package llm

import (
	"context"
	"fmt"
)

// ChatMessage is one turn of prior history handed to a provider.
type ChatMessage struct {
	Role    string `json:"role"` //"user" or "assistant"
	Content string `json:"content"`
}

type CompletionRequest struct {
	System      string
	History     []ChatMessage
	UserMessage string
	Model       string //empty means the provider default
	Temperature float32
	MaxTokens   int
}

type CompletionResult struct {
	Text             string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
}

// Provider normalizes one vendor completion API. Implementations must be safe
// for concurrent use and must respect ctx cancellation.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	Name() string
}

// APIError carries enough of the vendor response for the router to classify
// the failure and decide on retry, cooldown or the next provider.
type APIError struct {
	Provider      string
	StatusCode    int
	Body          string
	RetryAfterSec int //from the Retry-After header, 0 when unset
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

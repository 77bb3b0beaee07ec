package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmarti/chatbridge/internal/llm"
)

func TestComplete_Success(t *testing.T) {
	var gotReq chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("Bad request body: %v", err)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "routed answer"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 7},
		})
	}))
	defer server.Close()

	client := NewTestClient(server.URL, "test-model", server.Client())
	result, err := client.Complete(context.Background(), llm.CompletionRequest{
		System:      "be helpful",
		History:     []llm.ChatMessage{{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "reply"}},
		UserMessage: "now",
		Temperature: 0.5,
		MaxTokens:   100,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Text != "routed answer" || result.Provider != "huggingface" {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.PromptTokens != 12 || result.CompletionTokens != 7 {
		t.Errorf("Token counts wrong: %+v", result)
	}

	// system + 2 history + user message
	if len(gotReq.Messages) != 4 {
		t.Fatalf("Expected 4 wire messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[3].Content != "now" {
		t.Errorf("Message order wrong: %+v", gotReq.Messages)
	}
}

func TestComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
	}))
	defer server.Close()

	client := NewTestClient(server.URL, "test-model", server.Client())
	_, err := client.Complete(context.Background(), llm.CompletionRequest{UserMessage: "hi"})
	if err == nil {
		t.Fatal("Expected error on 429")
	}

	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", apiErr.StatusCode)
	}
	if apiErr.RetryAfterSec != 17 {
		t.Errorf("Expected Retry-After 17, got %d", apiErr.RetryAfterSec)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","choices":[]}`))
	}))
	defer server.Close()

	client := NewTestClient(server.URL, "test-model", server.Client())
	if _, err := client.Complete(context.Background(), llm.CompletionRequest{UserMessage: "hi"}); err == nil {
		t.Error("Expected error when response has no choices")
	}
}

package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmarti/chatbridge/internal/customHttpClient"
	"github.com/dmarti/chatbridge/internal/llm"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

// The HF inference router exposes the OpenAI chat-completions wire format.
const defaultBaseURL = "https://router.huggingface.co/v1"

type llmClient struct {
	baseURL    string
	apiKey     string
	modelName  string
	httpClient *http.Client
	logger     *logger_i.Logger
}

func GetHuggingFaceClient(apikey string, modelName string) llm.Provider {
	logger := logger_i.NewLogger("llm_huggingface")
	if apikey == "" {
		logger.Error("HuggingFace API key missing, provider disabled")
		return nil
	}
	return &llmClient{
		baseURL:    defaultBaseURL,
		apiKey:     apikey,
		modelName:  modelName,
		httpClient: customHttpClient.Shared(),
		logger:     logger,
	}
}

// NewTestClient points the adapter at a local server. Only for tests.
func NewTestClient(baseURL string, modelName string, httpClient *http.Client) llm.Provider {
	return &llmClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     "test-key",
		modelName:  modelName,
		httpClient: httpClient,
		logger:     logger_i.NewLogger("llm_huggingface"),
	}
}

func (c *llmClient) Name() string { return "huggingface" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *llmClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	model := req.Model
	if model == "" {
		model = c.modelName
	}

	messages := make([]chatMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.History {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserMessage})

	body, err := json.Marshal(chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return llm.CompletionResult{}, fmt.Errorf("marshal hf request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.CompletionResult{}, fmt.Errorf("build hf request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return llm.CompletionResult{}, fmt.Errorf("hf request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return llm.CompletionResult{}, fmt.Errorf("read hf response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &llm.APIError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
		if sec, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil {
			apiErr.RetryAfterSec = sec
		}
		return llm.CompletionResult{}, apiErr
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return llm.CompletionResult{}, fmt.Errorf("decode hf response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return llm.CompletionResult{}, fmt.Errorf("hf returned no choices")
	}

	out := llm.CompletionResult{
		Text:             parsed.Choices[0].Message.Content,
		Provider:         c.Name(),
		Model:            parsed.Model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		FinishReason:     parsed.Choices[0].FinishReason,
	}
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmarti/chatbridge/internal/customHttpClient"
	"github.com/dmarti/chatbridge/internal/llm"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

// Ollama's native /api/chat endpoint, non-streaming. No API key - the host is
// assumed local or otherwise trusted.
type llmClient struct {
	host       string
	modelName  string
	httpClient *http.Client
	logger     *logger_i.Logger
}

func GetOllamaClient(host string, modelName string) llm.Provider {
	return &llmClient{
		host:       strings.TrimRight(host, "/"),
		modelName:  modelName,
		httpClient: customHttpClient.Shared(),
		logger:     logger_i.NewLogger("llm_ollama"),
	}
}

// NewTestClient points the adapter at a local server. Only for tests.
func NewTestClient(host string, modelName string, httpClient *http.Client) llm.Provider {
	return &llmClient{
		host:       strings.TrimRight(host, "/"),
		modelName:  modelName,
		httpClient: httpClient,
		logger:     logger_i.NewLogger("llm_ollama"),
	}
}

func (c *llmClient) Name() string { return "ollama" }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	//token accounting uses ollama's own field names
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

func (c *llmClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	model := req.Model
	if model == "" {
		model = c.modelName
	}

	messages := make([]ollamaMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.History {
		messages = append(messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.UserMessage})

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Options:  options,
	})
	if err != nil {
		return llm.CompletionResult{}, fmt.Errorf("marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return llm.CompletionResult{}, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return llm.CompletionResult{}, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return llm.CompletionResult{}, fmt.Errorf("read ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return llm.CompletionResult{}, &llm.APIError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return llm.CompletionResult{}, fmt.Errorf("decode ollama response: %w", err)
	}

	return llm.CompletionResult{
		Text:             parsed.Message.Content,
		Provider:         c.Name(),
		Model:            parsed.Model,
		PromptTokens:     parsed.PromptEvalCount,
		CompletionTokens: parsed.EvalCount,
		FinishReason:     "stop",
	}, nil
}

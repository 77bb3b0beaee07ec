package gemini

import (
	"context"
	"errors"
	"sync"

	"github.com/dmarti/chatbridge/internal/llm"
	"github.com/dmarti/chatbridge/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

func GetGeminiClient(ctx context.Context, apikey string, modelName string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, apikey, modelName)
	})

	if geminiClient == nil {
		return nil
	}
	return geminiClient
}

func newGeminiClient(ctx context.Context, apikey string, modelName string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Info("Gemini client created", "model", modelName)
	go closeClient(ctx, geminiClient)
}

func (c *llmClient) Name() string { return "gemini" }

func (c *llmClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	model := req.Model
	if model == "" {
		model = c.modelName
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.UserMessage, genai.RoleUser))

	contentConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		contentConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, model, contents, contentConfig)
	if err != nil {
		return llm.CompletionResult{}, wrapGenaiError(err)
	}

	out := llm.CompletionResult{
		Text:     result.Text(),
		Provider: c.Name(),
		Model:    model,
	}
	if result.UsageMetadata != nil {
		out.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	if len(result.Candidates) > 0 {
		out.FinishReason = string(result.Candidates[0].FinishReason)
	}
	return out, nil
}

// The genai SDK surfaces HTTP failures as *genai.APIError. Re-shape into our
// APIError so the router classifies Gemini the same way as the raw adapters.
func wrapGenaiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.APIError{
			Provider:   "gemini",
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
		}
	}
	return err
}

func closeClient(ctx context.Context, c *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	c.client = nil
}

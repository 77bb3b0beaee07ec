package groq

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/dmarti/chatbridge/internal/llm"
	"github.com/dmarti/chatbridge/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Groq speaks the OpenAI chat-completions wire format, so the openai-go SDK
// pointed at their base URL is the whole adapter.
const groqBaseURL = "https://api.groq.com/openai/v1"

type llmClient struct {
	client    openai.Client
	modelName string
}

var logger *logger_i.Logger
var groqClient *llmClient
var once sync.Once

func GetGroqClient(apikey string, modelName string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_groq")
		if apikey == "" {
			logger.Error("Groq API key missing, provider disabled")
			return
		}
		groqClient = &llmClient{
			client: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithBaseURL(groqBaseURL),
				option.WithMaxRetries(0), //the router owns retry policy
			),
			modelName: modelName,
		}
		logger.Info("Groq client created", "model", modelName)
	})

	if groqClient == nil {
		return nil
	}
	return groqClient
}

func (c *llmClient) Name() string { return "groq" }

func (c *llmClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	model := req.Model
	if model == "" {
		model = c.modelName
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		if m.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.UserMessage))

	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		Temperature: openai.Float(float64(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.CompletionResult{}, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.CompletionResult{}, errors.New("groq returned no choices")
	}

	return llm.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		Provider:         c.Name(),
		Model:            resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		FinishReason:     string(resp.Choices[0].FinishReason),
	}, nil
}

func wrapOpenAIError(err error) error {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return err
	}
	out := &llm.APIError{
		Provider:   "groq",
		StatusCode: apierr.StatusCode,
		Body:       apierr.Error(),
	}
	if apierr.Response != nil {
		if sec, convErr := strconv.Atoi(apierr.Response.Header.Get("Retry-After")); convErr == nil {
			out.RetryAfterSec = sec
		}
	}
	return out
}

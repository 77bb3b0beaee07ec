package chat

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/dmarti/chatbridge/internal/adapter/utils"
	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/domain/chatModel"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/internal/extract"
	"github.com/dmarti/chatbridge/internal/llm"
	"github.com/dmarti/chatbridge/internal/llm/router"
	"github.com/dmarti/chatbridge/internal/metrics"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

// Service is all the worker needs, it doesn't know about providers or SQL.
type Service interface {
	ProcessCompletion(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job
	ProcessExtraction(ctx context.Context, job jobModel.Job) jobModel.Job
}

// RelationalStore is the slice of sqlstore the service writes through.
type RelationalStore interface {
	SaveMessage(ctx context.Context, message chatModel.Message) error
	RecordUsage(ctx context.Context, record chatModel.UsageRecord) error
	SetFileText(ctx context.Context, id string, kind chatModel.FileKind, text string) error
}

type service struct {
	providerRouter *router.Router
	db             RelationalStore
	logger         *logger_i.Logger
}

func NewService(providerRouter *router.Router, db RelationalStore) Service {
	return &service{
		providerRouter: providerRouter,
		db:             db,
		logger:         logger_i.NewLogger("Chat Service"),
	}
}

func (s *service) ProcessCompletion(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", job.TraceId, "JobId", job.Id)

	job.CurrentStep = jobModel.ProviderCall
	req := llm.CompletionRequest{
		System:      config.SystemPrompt,
		History:     historyToMessages(messageHistory),
		UserMessage: job.JobPayload.Prompt,
		Temperature: config.ModelTemperature,
		MaxTokens:   config.ModelMaxTokens,
	}

	start := time.Now()
	result, err := s.providerRouter.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return s.jobError(job, err, "COMPLETION_CANCELLED", true)
		}
		// chat traffic always answers - degrade to the canned response
		inMethodLogger.Warn("Provider chain exhausted, serving fallback", "error", err)
		result = s.providerRouter.Fallback(req)
		job.JobPayload.Degraded = true
	}
	latency := time.Since(start)

	job.JobPayload.Answer = result.Text
	job.JobPayload.Provider = result.Provider
	job.JobPayload.Model = result.Model
	job.JobPayload.PromptTokens = result.PromptTokens
	job.JobPayload.CompletionTokens = result.CompletionTokens

	job.CurrentStep = jobModel.PersistCall
	s.persistExchange(ctx, inMethodLogger, job)

	job.CurrentStep = jobModel.UsageCall
	s.recordUsage(ctx, inMethodLogger, job, latency)

	job.CurrentStep = jobModel.Complete
	return job
}

func (s *service) ProcessExtraction(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("file_extraction", time.Since(start)) }()
	inMethodLogger := s.logger.With("traceId", job.TraceId, "JobId", job.Id)

	job.CurrentStep = jobModel.ExtractProcessing
	path := job.JobPayload.FileLocation

	kind := extract.DetectKind(path)
	if kind == chatModel.ERR {
		return s.jobError(job, nil, "UNSUPPORTED_FILE_TYPE", false)
	}

	text, err := extract.Text(path, kind)
	if err != nil {
		return s.jobError(job, err, "EXTRACTION_FAILURE", true)
	}

	if s.db != nil {
		if err := s.db.SetFileText(ctx, job.JobPayload.FileId, kind, text); err != nil {
			return s.jobError(job, err, "EXTRACTION_PERSIST_FAILURE", true)
		}
	}

	if err := os.Remove(path); err != nil {
		inMethodLogger.Error("Error removing temp file", "error", err)
	}

	job.CurrentStep = jobModel.Complete
	return job
}

func (s *service) persistExchange(ctx context.Context, log *logger_i.Logger, job jobModel.Job) {
	if s.db == nil {
		return
	}
	now := time.Now().UTC()
	userMessage := chatModel.Message{
		Id:             utils.GetNewUUID(),
		ConversationId: job.ConversationId,
		Role:           chatModel.RoleUser,
		Content:        job.JobPayload.Prompt,
		CreatedAt:      now,
	}
	assistantMessage := chatModel.Message{
		Id:             utils.GetNewUUID(),
		ConversationId: job.ConversationId,
		Role:           chatModel.RoleAssistant,
		Content:        job.JobPayload.Answer,
		Provider:       job.JobPayload.Provider,
		Model:          job.JobPayload.Model,
		CreatedAt:      now.Add(time.Millisecond),
	}
	if err := s.db.SaveMessage(ctx, userMessage); err != nil {
		log.Error("Failed to persist user message", "err", err)
	}
	if err := s.db.SaveMessage(ctx, assistantMessage); err != nil {
		log.Error("Failed to persist assistant message", "err", err)
	}
}

func (s *service) recordUsage(ctx context.Context, log *logger_i.Logger, job jobModel.Job, latency time.Duration) {
	if s.db == nil {
		return
	}
	err := s.db.RecordUsage(ctx, chatModel.UsageRecord{
		Id:               utils.GetNewUUID(),
		UserId:           job.UserId,
		ProjectId:        job.ProjectId,
		ConversationId:   job.ConversationId,
		Provider:         job.JobPayload.Provider,
		Model:            job.JobPayload.Model,
		PromptTokens:     job.JobPayload.PromptTokens,
		CompletionTokens: job.JobPayload.CompletionTokens,
		LatencyMs:        latency.Milliseconds(),
		Degraded:         job.JobPayload.Degraded,
	})
	if err != nil {
		log.Error("Failed to record usage", "err", err)
	}
}

// historyToMessages rebuilds provider history from the redis list entries,
// which are JSON-encoded JobPayloads (question + answer per exchange).
func historyToMessages(history []string) []llm.ChatMessage {
	var out []llm.ChatMessage
	for _, raw := range history {
		var payload jobModel.JobPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			continue
		}
		if payload.Prompt == "" && payload.Answer == "" {
			continue //the init marker entry
		}
		if payload.Prompt != "" {
			out = append(out, llm.ChatMessage{Role: "user", Content: payload.Prompt})
		}
		if payload.Answer != "" {
			out = append(out, llm.ChatMessage{Role: "assistant", Content: payload.Answer})
		}
	}
	return out
}

package chat

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/domain/chatModel"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/internal/llm"
	"github.com/dmarti/chatbridge/internal/llm/router"
)

type scriptedProvider struct {
	name string
	err  error
	text string
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	if p.err != nil {
		return llm.CompletionResult{}, p.err
	}
	return llm.CompletionResult{Text: p.text, Provider: p.name, Model: "m", PromptTokens: 3, CompletionTokens: 5}, nil
}

type recordingStore struct {
	messages []chatModel.Message
	usage    []chatModel.UsageRecord
	files    map[string]string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{files: make(map[string]string)}
}

func (r *recordingStore) SaveMessage(ctx context.Context, message chatModel.Message) error {
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingStore) RecordUsage(ctx context.Context, record chatModel.UsageRecord) error {
	r.usage = append(r.usage, record)
	return nil
}

func (r *recordingStore) SetFileText(ctx context.Context, id string, kind chatModel.FileKind, text string) error {
	r.files[id] = text
	return nil
}

func fastRouter(providers ...llm.Provider) *router.Router {
	return router.New(router.Policy{
		MaxRetries:    0,
		BackoffStart:  time.Millisecond,
		BackoffCeil:   time.Millisecond,
		CooldownFloor: time.Minute,
	}, providers...)
}

func TestProcessCompletion_Success(t *testing.T) {
	db := newRecordingStore()
	svc := NewService(fastRouter(&scriptedProvider{name: "gemini", text: "the answer"}), db)

	job := jobModel.Job{Id: "j1", ConversationId: "c1", UserId: "u1", ProjectId: "p1"}
	job.JobPayload.Prompt = "the question"

	out := svc.ProcessCompletion(context.Background(), job, nil)

	if out.Status == jobModel.JobStatusError {
		t.Fatalf("Unexpected error state: %+v", out.Error)
	}
	if out.JobPayload.Answer != "the answer" || out.JobPayload.Provider != "gemini" {
		t.Errorf("Payload not filled: %+v", out.JobPayload)
	}
	if out.JobPayload.Degraded {
		t.Error("Successful completion must not be degraded")
	}
	if out.CurrentStep != jobModel.Complete {
		t.Errorf("Expected Complete step, got %s", out.CurrentStep)
	}

	if len(db.messages) != 2 {
		t.Fatalf("Expected user+assistant messages persisted, got %d", len(db.messages))
	}
	if db.messages[0].Role != chatModel.RoleUser || db.messages[1].Role != chatModel.RoleAssistant {
		t.Errorf("Message roles wrong: %+v", db.messages)
	}
	if len(db.usage) != 1 || db.usage[0].Provider != "gemini" {
		t.Errorf("Usage not recorded: %+v", db.usage)
	}
}

func TestProcessCompletion_DegradesWhenChainFails(t *testing.T) {
	db := newRecordingStore()
	down := &scriptedProvider{name: "down", err: &llm.APIError{Provider: "down", StatusCode: 401, Body: "bad key"}}
	svc := NewService(fastRouter(down), db)

	job := jobModel.Job{Id: "j2", ConversationId: "c1"}
	job.JobPayload.Prompt = "anyone there?"

	out := svc.ProcessCompletion(context.Background(), job, nil)

	if out.Status == jobModel.JobStatusError {
		t.Fatalf("Degraded completion should not error the job: %+v", out.Error)
	}
	if !out.JobPayload.Degraded {
		t.Error("Expected degraded flag when every provider fails")
	}
	if out.JobPayload.Answer != config.FallbackAnswer {
		t.Errorf("Expected canned answer, got %q", out.JobPayload.Answer)
	}
	if out.JobPayload.Provider != "fallback" {
		t.Errorf("Expected fallback provider, got %s", out.JobPayload.Provider)
	}
	if len(db.usage) != 1 || !db.usage[0].Degraded {
		t.Errorf("Degraded usage not recorded: %+v", db.usage)
	}
}

func TestProcessCompletion_FeedsHistoryToProvider(t *testing.T) {
	var seen []llm.ChatMessage
	capture := &captureProvider{onComplete: func(req llm.CompletionRequest) {
		seen = req.History
	}}
	svc := NewService(fastRouter(capture), newRecordingStore())

	marker, _ := json.Marshal(jobModel.JobPayload{})
	exchange, _ := json.Marshal(jobModel.JobPayload{Prompt: "old q", Answer: "old a"})

	job := jobModel.Job{Id: "j3", ConversationId: "c1"}
	job.JobPayload.Prompt = "new q"
	svc.ProcessCompletion(context.Background(), job, []string{string(marker), string(exchange), "not json"})

	if len(seen) != 2 {
		t.Fatalf("Expected 2 history messages (marker and junk skipped), got %d", len(seen))
	}
	if seen[0].Role != "user" || seen[0].Content != "old q" {
		t.Errorf("First history message wrong: %+v", seen[0])
	}
	if seen[1].Role != "assistant" || seen[1].Content != "old a" {
		t.Errorf("Second history message wrong: %+v", seen[1])
	}
}

type captureProvider struct {
	onComplete func(req llm.CompletionRequest)
}

func (p *captureProvider) Name() string { return "capture" }

func (p *captureProvider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	if p.onComplete != nil {
		p.onComplete(req)
	}
	return llm.CompletionResult{Text: "ok", Provider: "capture"}, nil
}

func TestProcessExtraction_PlainText(t *testing.T) {
	db := newRecordingStore()
	svc := NewService(fastRouter(&scriptedProvider{name: "unused", text: ""}), db)

	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte("document body"), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	job := jobModel.Job{Id: "j4", JobType: jobModel.JobTypeExtract}
	job.JobPayload.FileId = "file-1"
	job.JobPayload.FileLocation = path

	out := svc.ProcessExtraction(context.Background(), job)

	if out.Status == jobModel.JobStatusError {
		t.Fatalf("Extraction failed: %+v", out.Error)
	}
	if db.files["file-1"] != "document body" {
		t.Errorf("Extracted text not persisted, got %q", db.files["file-1"])
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Temp file should be removed after extraction")
	}
}

func TestProcessExtraction_UnsupportedType(t *testing.T) {
	svc := NewService(fastRouter(&scriptedProvider{name: "unused"}), newRecordingStore())

	job := jobModel.Job{Id: "j5", JobType: jobModel.JobTypeExtract}
	job.JobPayload.FileLocation = "/tmp/archive.zip"

	out := svc.ProcessExtraction(context.Background(), job)
	if out.Status != jobModel.JobStatusError {
		t.Error("Expected error status for unsupported file type")
	}
	if out.Error.Retry {
		t.Error("Unsupported type is not retryable")
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/data/sqlstore"
	"github.com/dmarti/chatbridge/internal/data/store"
	"github.com/dmarti/chatbridge/internal/domain/chatModel"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/internal/job"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

// stubChatService satisfies the chat service without dialing providers.
type stubChatService struct{}

func (stubChatService) ProcessCompletion(ctx context.Context, j jobModel.Job, hist []string) jobModel.Job {
	return j
}

func (stubChatService) ProcessExtraction(ctx context.Context, j jobModel.Job) jobModel.Job {
	return j
}

var testDB *sqlstore.Store

func TestMain(m *testing.M) {
	logger_i.Init()

	dir, err := os.MkdirTemp("", "handlers-test")
	if err != nil {
		panic(err)
	}
	testDB, err = sqlstore.Open(filepath.Join(dir, "handlers.db"))
	if err != nil {
		panic(err)
	}

	jobSvc := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, config.BufferLimit),
		DispatcherChannel: make(chan bool, config.BufferLimit),
		JobStore:          store.InitInMemoryJobStore(),
		MessageStore:      store.InitMessageStore(),
	})
	InitJobHandler(jobSvc, stubChatService{}, testDB)

	code := m.Run()
	_ = testDB.Close()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func tracedRequest(method, target string, body *bytes.Reader) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, "handler-test-trace")
	return req.WithContext(ctx)
}

func TestPostFileHandler_RejectsOversizedUpload(t *testing.T) {
	body := bytes.NewReader(make([]byte, config.MaxUploadBytes+64*1024))
	req := tracedRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=frame")

	rr := httptest.NewRecorder()
	PostFileHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Oversized upload returned %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListConversationsHandler_FiltersByProjectParam(t *testing.T) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "handler-test-trace")
	seed := []chatModel.Conversation{
		{Id: "conv-list-1", ProjectId: "conv-proj-a", Title: "first"},
		{Id: "conv-list-2", ProjectId: "conv-proj-b", Title: "second"},
	}
	for _, c := range seed {
		if err := testDB.CreateConversation(ctx, c); err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}
	}

	req := tracedRequest(http.MethodGet, "/conversations?project_id=conv-proj-a", nil)
	rr := httptest.NewRecorder()
	ListConversationsHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ListConversations returned %d, want %d", rr.Code, http.StatusOK)
	}
	var conversations []chatModel.Conversation
	if err := json.NewDecoder(rr.Body).Decode(&conversations); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("Expected 1 conversation for project, got %d", len(conversations))
	}
	if conversations[0].Id != "conv-list-1" {
		t.Errorf("Wrong conversation returned: %s", conversations[0].Id)
	}
}

func TestUsageSummaryHandler_ScopesByProjectParam(t *testing.T) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "handler-test-trace")
	seed := []chatModel.UsageRecord{
		{Id: "usage-rec-1", ProjectId: "usage-proj-a", Provider: "gemini", PromptTokens: 10, CompletionTokens: 20},
		{Id: "usage-rec-2", ProjectId: "usage-proj-b", Provider: "groq", PromptTokens: 5, CompletionTokens: 5},
	}
	for _, rec := range seed {
		if err := testDB.RecordUsage(ctx, rec); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
	}

	req := tracedRequest(http.MethodGet, "/analytics/usage?project_id=usage-proj-a", nil)
	rr := httptest.NewRecorder()
	UsageSummaryHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("UsageSummary returned %d, want %d", rr.Code, http.StatusOK)
	}
	var summary chatModel.UsageSummary
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if summary.Requests != 1 {
		t.Errorf("Expected 1 request in scoped summary, got %d", summary.Requests)
	}
	if summary.PromptTokens != 10 || summary.CompletionTokens != 20 {
		t.Errorf("Scoped token totals wrong: prompt=%d completion=%d", summary.PromptTokens, summary.CompletionTokens)
	}
	if summary.ByProvider["groq"] != 0 {
		t.Errorf("Other project's provider leaked into scoped summary: %v", summary.ByProvider)
	}
}

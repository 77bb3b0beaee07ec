package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/internal/job"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

// MockChatService tracks which jobs were executed
type MockChatService struct {
	CompletionCount int32
	ExtractionCount int32
}

func (m *MockChatService) ProcessCompletion(ctx context.Context, j jobModel.Job, hist []string) jobModel.Job {
	atomic.AddInt32(&m.CompletionCount, 1)
	return j
}

func (m *MockChatService) ProcessExtraction(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ExtractionCount, 1)
	return j
}

type MockJobStore struct {
	OnSaveJob func(ctx context.Context, job jobModel.Job) error
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	if m.OnSaveJob != nil {
		return m.OnSaveJob(ctx, j)
	}
	return nil
}

// MockMessageStore handles conversation history
type MockMessageStore struct {
	OnGetHistory   func(ctx context.Context, conversationId string) (error, []string)
	OnSaveExchange func(ctx context.Context, conversationId string, payload jobModel.JobPayload) error
}

func (m *MockMessageStore) ValidateConversationId(ctx context.Context, id string) bool {
	return true
}

func (m *MockMessageStore) InitNewConversation(ctx context.Context, id string) error {
	return nil
}

func (m *MockMessageStore) GetMessageHistory(ctx context.Context, id string) (error, []string) {
	if m.OnGetHistory != nil {
		return m.OnGetHistory(ctx, id)
	}
	return nil, []string{}
}

func (m *MockMessageStore) TrySaveExchange(ctx context.Context, id string, p jobModel.JobPayload) error {
	if m.OnSaveExchange != nil {
		return m.OnSaveExchange(ctx, id, p)
	}
	return nil
}

func TestWorkerPool_Flow(t *testing.T) {
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          &MockJobStore{},
		MessageStore:      &MockMessageStore{},
	}
	mockChat := &MockChatService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockChat)
	InitWorkerPool(stopChan, wg)

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true

		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker processes a completion job", func(t *testing.T) {
		testJob := jobModel.Job{Id: "test-1", JobType: jobModel.JobTypeCompletion}
		jobSvc.JobChannel <- testJob

		time.Sleep(50 * time.Millisecond)

		processed := atomic.LoadInt32(&mockChat.CompletionCount)
		if processed != 1 {
			t.Errorf("Expected 1 completion processed, got %d", processed)
		}
	})

	t.Run("Worker routes extraction jobs to the extractor", func(t *testing.T) {
		testJob := jobModel.Job{Id: "test-2", JobType: jobModel.JobTypeExtract}
		jobSvc.JobChannel <- testJob

		time.Sleep(50 * time.Millisecond)

		if got := atomic.LoadInt32(&mockChat.ExtractionCount); got != 1 {
			t.Errorf("Expected 1 extraction processed, got %d", got)
		}
		if got := atomic.LoadInt32(&mockChat.CompletionCount); got != 1 {
			t.Errorf("Extraction job must not hit the completion path, completions: %d", got)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleRetirementKeepsMinimum(t *testing.T) {
	defer atomic.StoreInt64(&currentWorkerCount, 0)

	atomic.StoreInt64(&currentWorkerCount, minWorkerCount)
	if shouldRetire() {
		t.Error("The last worker must stay alive to serve the job channel")
	}

	atomic.StoreInt64(&currentWorkerCount, minWorkerCount+2)
	if !shouldRetire() {
		t.Error("Idle workers above the minimum should retire")
	}
}

func TestWorker_SavesTerminalState(t *testing.T) {
	var savedStates []jobModel.JobStatus
	var mu sync.Mutex

	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 1),
		DispatcherChannel: make(chan bool, 1),
		JobStore: &MockJobStore{
			OnSaveJob: func(ctx context.Context, j jobModel.Job) error {
				mu.Lock()
				savedStates = append(savedStates, j.Status)
				mu.Unlock()
				return nil
			},
		},
		MessageStore: &MockMessageStore{},
	}
	InitServices(jobSvc, &MockChatService{})
	logger = logger_i.NewLogger("TestWorkerPool")

	executeJob(jobModel.Job{Id: "state-1", JobType: jobModel.JobTypeCompletion})

	mu.Lock()
	defer mu.Unlock()
	if len(savedStates) != 2 {
		t.Fatalf("Expected 2 state saves (running + terminal), got %d", len(savedStates))
	}
	if savedStates[0] != jobModel.JobStatusRunning {
		t.Errorf("First save should be RUNNING, got %s", savedStates[0])
	}
	if savedStates[1] != jobModel.JobStatusComplete {
		t.Errorf("Terminal save should be COMPLETE, got %s", savedStates[1])
	}
}

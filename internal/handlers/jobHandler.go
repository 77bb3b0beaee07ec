package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmarti/chatbridge/internal/api"
	"github.com/dmarti/chatbridge/internal/chat"
	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/data/sqlstore"
	"github.com/dmarti/chatbridge/internal/domain/chatModel"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/internal/job"
	"github.com/dmarti/chatbridge/internal/metrics"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service     *job.Service
	chatService chat.Service
	db          *sqlstore.Store
}

func InitJobHandler(jobService *job.Service, chatService chat.Service, db *sqlstore.Store) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, chatService: chatService, db: db}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logRes = logger_i.NewLogger("ResourceHandler")
		logJH.Info("Starting job handler")
	})

}

func CreateNewJob(newJob newJobData) {
	logJH.Info("To create new job", "traceId", newJob.traceId, "job id", newJob.id)
	handlerInstance.pushToJobChannel(newJob)
	if newJob.isNewConversation {
		logJH.Info("Create new conversation")
		handlerInstance.initNewConversation(newJob)
	}
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func ValidateChatRequest(chatReq api.ChatRequest) bool {
	if handlerInstance == nil {
		return false
	}
	if chatReq.Message == "" {
		return false
	}
	if chatReq.ConversationID == "" {
		return true
	}
	return handlerInstance.service.MessageStore.ValidateConversationId(context.Background(), chatReq.ConversationID)
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued

	if newJob.isFileExtract {
		_job.CurrentStep = jobModel.ExtractInit
		_job.JobType = jobModel.JobTypeExtract
		_job.ProjectId = newJob.projectId
		_job.JobPayload.FileId = newJob.fileId
		_job.JobPayload.FileName = newJob.fileName
		_job.JobPayload.FileLocation = newJob.fileLocation

	} else {
		_job.JobType = jobModel.JobTypeCompletion
		_job.ConversationId = newJob.conversationId
		_job.ProjectId = newJob.projectId
		_job.UserId = newJob.userId
		_job.JobPayload.Prompt = newJob.message
		_job.CurrentStep = jobModel.CompletionInit
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//a new worker is started every N requests, and always for a file
	//extraction job since those can run long. Idle workers retire on their
	//own so the pool shrinks back to one.
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeExtract {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", "count", accurateCount)
		h.service.DispatcherChannel <- true
	}
}

func (h *JobHandler) initNewConversation(newJob newJobData) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.service.MessageStore.InitNewConversation(ctxC, newJob.conversationId); err != nil {
		logJH.Error("Error initiating new conversation", "conversationId", newJob.conversationId, "err", err)
		return
	}
	if h.db != nil {
		err := h.db.CreateConversation(ctxC, chatModel.Conversation{
			Id:        newJob.conversationId,
			ProjectId: newJob.projectId,
			UserId:    newJob.userId,
			Title:     titleFromMessage(newJob.message),
		})
		if err != nil {
			logJH.Error("Error persisting new conversation", "conversationId", newJob.conversationId, "err", err)
		}
	}
}

func titleFromMessage(message string) string {
	const max = 48
	if len(message) <= max {
		return message
	}
	return message[:max]
}

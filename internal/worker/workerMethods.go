package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmarti/chatbridge/internal/config"
	jobmodel "github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/internal/metrics"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, 60*time.Second)
	defer cancel()
	logger.Debug("Processing job:", "job Id:", job.Id, "traceId", job.TraceId)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	if job.JobType == jobmodel.JobTypeExtract {
		job.CurrentStep = jobmodel.ExtractProcessing
		job = _chatService.ProcessExtraction(ctx, job)

	} else {
		job.CurrentStep = jobmodel.HistoryCall
		job = processCompletion(job, ctx, logger)
		if job.Status != jobmodel.JobStatusError {
			if err := _jobService.MessageStore.TrySaveExchange(ctx, job.ConversationId, job.JobPayload); err != nil {
				logger.Error("Failed to save conversation history", "err", err)
			}
		}
	}

	job.EndTime = time.Now()
	if job.Status != jobmodel.JobStatusError {
		saveJobState(ctx, job, jobmodel.JobStatusComplete)
	} else {
		saveJobState(ctx, job, jobmodel.JobStatusError)
	}
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

func processCompletion(job jobmodel.Job, ctx context.Context, logger *logger_i.Logger) jobmodel.Job {
	err, messageHistory := _jobService.MessageStore.GetMessageHistory(ctx, job.ConversationId)
	if err != nil {
		logger.Error("Failed to get message history", "err", err)
	}
	return _chatService.ProcessCompletion(ctx, job, messageHistory)
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job status", "err", err)
	}
}

package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmarti/chatbridge/internal/chat"
	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/job"
	"github.com/dmarti/chatbridge/internal/metrics"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

var (
	_jobService        *job.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
	_chatService       chat.Service
	minWorkerCount     = config.MinWorkerCount
)

func InitServices(jobService *job.Service, chatService chat.Service) {
	_jobService = jobService
	_chatService = chatService
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
			logger.Info("Creating new worker", "WorkerCount :", currentWorkerCount)
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Created new worker")
}

func worker() {
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")

			return

		case <-time.After(config.IdleWorkerTimeout):
			// Worker was idle for too long, decrement counter and retire
			if shouldRetire() {
				removeWorker("Idle worker timeout - Removed worker")
				return
			}
		}
	}
}

// shouldRetire shrinks an idle pool back down while keeping minWorkerCount
// workers alive to serve the channel.
func shouldRetire() bool {
	return atomic.LoadInt64(&currentWorkerCount) > minWorkerCount
}

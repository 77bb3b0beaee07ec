package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmarti/chatbridge/internal/chat"
	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/data/sqlstore"
	"github.com/dmarti/chatbridge/internal/data/store"
	jobmodel "github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/internal/handlers"
	"github.com/dmarti/chatbridge/internal/job"
	"github.com/dmarti/chatbridge/internal/llm"
	"github.com/dmarti/chatbridge/internal/llm/gemini"
	"github.com/dmarti/chatbridge/internal/llm/groq"
	"github.com/dmarti/chatbridge/internal/llm/huggingface"
	"github.com/dmarti/chatbridge/internal/llm/ollama"
	"github.com/dmarti/chatbridge/internal/llm/router"
	"github.com/dmarti/chatbridge/internal/server"
	"github.com/dmarti/chatbridge/internal/worker"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	settings, err := config.Load()
	if err != nil {
		logger.Error("Bad environment configuration", "err", err)
		return
	}
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.NewJobStore(store.GetRedisJobStore(serviceContext)),
		MessageStore:      store.NewMessageStore(store.GetRedisMessageStore(serviceContext)),
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	db, err := sqlstore.Open(settings.SQLitePath)
	if err != nil {
		logger.Error("SQLite is offline, REST resources will be unavailable", "err", err)
		db = nil
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	providerRouter := router.New(router.DefaultPolicy(), buildProviders(serviceContext, settings, logger)...)
	if len(providerRouter.Providers()) == 0 {
		logger.Error("No AI providers are configured. Shutting down.")
		return
	}
	logger.Info("Provider chain ready", "order", providerRouter.Providers())

	chatService := chat.NewService(providerRouter, db)

	handlers.InitJobHandler(service, chatService, db)

	//init worker pool
	worker.InitServices(service, chatService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

// buildProviders constructs the fallback chain in the configured order.
// Providers without credentials are skipped, ollama only needs a host.
func buildProviders(ctx context.Context, settings config.Settings, logger *logger_i.Logger) []llm.Provider {
	var providers []llm.Provider
	for _, name := range settings.ProviderOrder {
		switch name {
		case "gemini":
			if settings.GeminiAPIKey != "" {
				providers = append(providers, gemini.GetGeminiClient(ctx, settings.GeminiAPIKey, config.GeminiModelName))
			}
		case "groq":
			if settings.GroqAPIKey != "" {
				providers = append(providers, groq.GetGroqClient(settings.GroqAPIKey, config.GroqModelName))
			}
		case "huggingface":
			if settings.HuggingFaceAPIKey != "" {
				providers = append(providers, huggingface.GetHuggingFaceClient(settings.HuggingFaceAPIKey, config.HuggingFaceModelName))
			}
		case "ollama":
			if settings.OllamaHost != "" {
				providers = append(providers, ollama.GetOllamaClient(settings.OllamaHost, config.OllamaModelName))
			}
		default:
			logger.Warn("Unknown provider in PROVIDER_ORDER", "provider", name)
		}
	}
	return providers
}

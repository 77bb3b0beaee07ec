package middleware

import (
	"net/http"
	"strconv"

	"github.com/dmarti/chatbridge/internal/handlers"
	"github.com/dmarti/chatbridge/internal/metrics"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
	id           string
}

var GetHandler = Wrap(handlers.GetHandler)

var (
	ChatHandler      = Wrap(handlers.ChatHandler)
	SyncChatHandler  = Wrap(handlers.SyncChatHandler)
	GetStatusHandler = Wrap(handlers.GetStatusHandler)
	PostFileHandler  = Wrap(handlers.PostFileHandler)

	CreateUserHandler = Wrap(handlers.CreateUserHandler)
	GetUserHandler    = Wrap(handlers.GetUserHandler)

	CreateProjectHandler = Wrap(handlers.CreateProjectHandler)
	GetProjectHandler    = Wrap(handlers.GetProjectHandler)
	ListProjectsHandler  = Wrap(handlers.ListProjectsHandler)
	DeleteProjectHandler = Wrap(handlers.DeleteProjectHandler)

	ListConversationsHandler  = Wrap(handlers.ListConversationsHandler)
	GetConversationHandler    = Wrap(handlers.GetConversationHandler)
	RenameConversationHandler = Wrap(handlers.RenameConversationHandler)
	DeleteConversationHandler = Wrap(handlers.DeleteConversationHandler)
	ListMessagesHandler       = Wrap(handlers.ListMessagesHandler)

	GetFileHandler = Wrap(handlers.GetFileHandler)

	UsageSummaryHandler = Wrap(handlers.UsageSummaryHandler)
)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}
func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received")
	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails
	}
	re = rateLimiter(re)
	if re.badRequest.isBadRequest {
		return re //stop here if rate limit fails
	}

	return re
}

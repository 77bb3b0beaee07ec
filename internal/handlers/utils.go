package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmarti/chatbridge/internal/adapter"
	"github.com/dmarti/chatbridge/internal/adapter/utils"
	"github.com/dmarti/chatbridge/internal/api"
	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
)

type fileUpload struct {
	id       string
	name     string
	location string
}

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response: %v", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	logRH.With("traceId:", ctx.Value(config.TRACE_ID_KEY).(string))
	if ctx.Err() != nil {
		logRH.Warn("context error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true

	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

func getTargetDirectory() (string, string) {
	root, err := os.Getwd()
	if err != nil {
		return "", "Storage Error"
	}

	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", "Storage Error"
	}
	return targetDir, ""
}

func processNewJobData(request *http.Request, w http.ResponseWriter, requestData api.ChatRequest, upload fileUpload) {
	conversationId := ""
	message := ""
	isNewConversation := false

	//an empty upload means this is a chat request
	isChatRequest := upload.location == ""

	if isChatRequest {
		conversationId = requestData.ConversationID
		if conversationId == "" {
			conversationId = utils.GetNewUUID()
			logRH.Debug(" New Conversation request : ", "conversationId:", conversationId)
			isNewConversation = true
		}
		message = requestData.Message
	}

	newJob := newJobData{
		id:                utils.GetNewUUID(),
		conversationId:    conversationId,
		projectId:         requestData.ProjectID,
		userId:            requestData.UserID,
		message:           message,
		isNewConversation: isNewConversation,
		traceId:           request.Context().Value(config.TRACE_ID_KEY).(string),
		isFileExtract:     !isChatRequest,
		fileId:            upload.id,
		fileName:          upload.name,
		fileLocation:      upload.location,
	}
	CreateNewJob(newJob)
	res := adapter.ToInitJobResponse(newJob.id)
	writeJsonResponse(w, http.StatusAccepted, res)

}

// parsePage reads limit/offset query params, the store clamps them again.
func parsePage(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

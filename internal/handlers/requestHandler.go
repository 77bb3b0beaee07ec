package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dmarti/chatbridge/internal/adapter"
	"github.com/dmarti/chatbridge/internal/adapter/utils"
	"github.com/dmarti/chatbridge/internal/api"
	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/domain/chatModel"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

var logRH *logger_i.Logger

// newJobData is the handler-side view of a request before it becomes a job.
// It exists so jobHandler can eventually move to its own package.
type newJobData struct {
	id                string
	conversationId    string
	projectId         string
	userId            string
	message           string
	isNewConversation bool
	traceId           string
	isFileExtract     bool
	fileId            string
	fileName          string
	fileLocation      string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ChatHandler accepts a message, queues a completion job and returns the job
// id so the caller can poll /status/{id}.
func ChatHandler(w http.ResponseWriter, request *http.Request) {

	if validateContext(request.Context()) {

		requestData, ok := decodeChatRequest(w, request)
		if !ok {
			return
		}
		processNewJobData(request, w, requestData, fileUpload{})
		return
	}
	logRH.Warn("Invalid Context by request ", request.RemoteAddr)
}

// SyncChatHandler runs the provider chain inline and answers in the same
// response. Slow providers make this block, that is the caller's tradeoff.
func SyncChatHandler(w http.ResponseWriter, request *http.Request) {

	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", request.RemoteAddr)
		return
	}

	requestData, ok := decodeChatRequest(w, request)
	if !ok {
		return
	}

	traceId := request.Context().Value(config.TRACE_ID_KEY).(string)
	conversationId := requestData.ConversationID
	isNew := conversationId == ""
	if isNew {
		conversationId = utils.GetNewUUID()
	}

	syncJob := jobModel.Job{
		Id:             utils.GetNewUUID(),
		ConversationId: conversationId,
		ProjectId:      requestData.ProjectID,
		UserId:         requestData.UserID,
		TraceId:        traceId,
		JobType:        jobModel.JobTypeCompletion,
		CreatedTime:    time.Now(),
		Status:         jobModel.JobStatusRunning,
	}
	syncJob.JobPayload.Prompt = requestData.Message

	if isNew {
		handlerInstance.initNewConversation(newJobData{
			conversationId: conversationId,
			projectId:      requestData.ProjectID,
			userId:         requestData.UserID,
			message:        requestData.Message,
			traceId:        traceId,
		})
	}

	err, history := handlerInstance.service.MessageStore.GetMessageHistory(request.Context(), conversationId)
	if err != nil {
		logRH.Error("Failed to get message history", "err", err)
	}

	syncJob = handlerInstance.chatService.ProcessCompletion(request.Context(), syncJob, history)
	syncJob.EndTime = time.Now()

	if syncJob.Status == jobModel.JobStatusError {
		writeJsonResponse(w, http.StatusBadGateway, adapter.ToAPIResponse(syncJob))
		return
	}
	syncJob.Status = jobModel.JobStatusComplete

	if err := handlerInstance.service.MessageStore.TrySaveExchange(request.Context(), conversationId, syncJob.JobPayload); err != nil {
		logRH.Error("Failed to save conversation history", "err", err)
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(syncJob))
}

// GetStatusHandler returns the current state of a job by id.
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// PostFileHandler receives a file via multipart/form-data, saves it to a
// temporary directory, records it and queues a text extraction job.
func PostFileHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		// MaxBytesReader enforces the cap on the wire, ParseMultipartForm's
		// argument only bounds how much is held in memory.
		r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
		if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
			return
		}

		fileName := r.FormValue("file_name")
		if fileName == "" {
			WriteErrorResponse(w, http.StatusBadRequest, "", "file_name is required")
			return
		}
		projectId := r.FormValue("project_id")

		fileReader, fileMetadata, err := r.FormFile("file")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, fileName, "Could not retrieve file")
			return
		}
		defer fileReader.Close()

		targetDir, errString := getTargetDirectory()
		if errString != "" {
			logRH.Error("Couldn't get target directory :", "err", errString)
			WriteErrorResponse(w, http.StatusInternalServerError, fileName, errString)
			return
		}

		storedName := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
		tempFilePath := filepath.Join(targetDir, storedName)
		destinationFileWriter, err := os.Create(tempFilePath)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, fileName, "Storage error")
			return
		}
		defer destinationFileWriter.Close()

		written, err := io.Copy(destinationFileWriter, fileReader)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, fileName, "Write error")
			return
		}

		fileId := utils.GetNewUUID()
		if handlerInstance.db != nil {
			err := handlerInstance.db.CreateFile(r.Context(), chatModel.FileAttachment{
				Id:        fileId,
				ProjectId: projectId,
				Name:      fileName,
				SizeBytes: written,
			})
			if err != nil {
				logRH.Error("Failed to record file upload", "err", err)
				WriteErrorResponse(w, http.StatusInternalServerError, fileName, "Storage error")
				return
			}
		}

		processNewJobData(r, w, api.ChatRequest{ProjectID: projectId}, fileUpload{
			id:       fileId,
			name:     fileName,
			location: tempFilePath,
		})
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

func decodeChatRequest(w http.ResponseWriter, request *http.Request) (api.ChatRequest, bool) {
	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logRH.Error("Couldn't close the Chat handler reader :", err)
		}
	}(request.Body)

	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !ValidateChatRequest(requestData) {
		logRH.Warn("Bad Chat Request: ", "error:", err, "request data:", requestData)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.ConversationID, "Bad Request")
		return api.ChatRequest{}, false
	}
	return requestData, true
}

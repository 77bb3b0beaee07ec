package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmarti/chatbridge/internal/adapter/utils"
	"github.com/dmarti/chatbridge/internal/api"
	"github.com/dmarti/chatbridge/internal/data/sqlstore"
	"github.com/dmarti/chatbridge/internal/domain/chatModel"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

var logRes *logger_i.Logger

// relationalDB guards every resource handler, the chat path can run without
// SQLite but the REST resources cannot.
func relationalDB(w http.ResponseWriter) (*sqlstore.Store, bool) {
	if handlerInstance == nil || handlerInstance.db == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Relational store is offline")
		return nil, false
	}
	return handlerInstance.db, true
}

func writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, sqlstore.ErrNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, id, "Not found")
		return
	}
	logRes.Error("Store failure", "err", err)
	WriteErrorResponse(w, http.StatusInternalServerError, id, "Storage error")
}

// users ----------------------------------------------------------------

func CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	var req api.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "email is required")
		return
	}

	user := chatModel.User{
		Id:        utils.GetNewUUID(),
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateUser(r.Context(), user); err != nil {
		writeStoreError(w, "", err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, user)
}

func GetUserHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	user, err := db.GetUser(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, user)
}

// projects -------------------------------------------------------------

func CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	var req api.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "name is required")
		return
	}

	project := chatModel.Project{
		Id:          utils.GetNewUUID(),
		OwnerId:     req.OwnerID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.CreateProject(r.Context(), project); err != nil {
		writeStoreError(w, "", err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, project)
}

func GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	project, err := db.GetProject(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, project)
}

func ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	limit, offset := parsePage(r)
	projects, err := db.ListProjects(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, projects)
}

func DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	if err := db.DeleteProject(r.Context(), id); err != nil {
		writeStoreError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// conversations ---------------------------------------------------------

func ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	limit, offset := parsePage(r)
	projectId := r.URL.Query().Get("project_id")
	conversations, err := db.ListConversations(r.Context(), projectId, limit, offset)
	if err != nil {
		writeStoreError(w, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, conversations)
}

func GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	conversation, err := db.GetConversation(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, conversation)
}

func RenameConversationHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	var req api.RenameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		WriteErrorResponse(w, http.StatusBadRequest, id, "title is required")
		return
	}

	if err := db.RenameConversation(r.Context(), id, req.Title); err != nil {
		writeStoreError(w, id, err)
		return
	}
	conversation, err := db.GetConversation(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, conversation)
}

func DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	if err := db.DeleteConversation(r.Context(), id); err != nil {
		writeStoreError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	if _, err := db.GetConversation(r.Context(), id); err != nil {
		writeStoreError(w, id, err)
		return
	}

	limit, offset := parsePage(r)
	messages, err := db.ListMessages(r.Context(), id, limit, offset)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, messages)
}

// files ------------------------------------------------------------------

func GetFileHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	file, err := db.GetFile(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, file)
}

// analytics ----------------------------------------------------------------

func UsageSummaryHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := relationalDB(w)
	if !ok {
		return
	}

	projectId := r.URL.Query().Get("project_id")
	summary, err := db.UsageSummary(r.Context(), projectId)
	if err != nil {
		writeStoreError(w, projectId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, summary)
}

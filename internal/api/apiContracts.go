package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id             string            `json:"id" example:"job_cz109"`
	ConversationId string            `json:"conversation_id" example:"conv_550"`
	Result         Result            `json:"result"`
	Error          *JobOutgoingError `json:"error,omitempty"`
	StartTime      time.Time         `json:"start_time"`
	EndTime        time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type CompletionResponse struct {
	Prompt           string `json:"prompt"`
	Answer           string `json:"answer"`
	Provider         string `json:"provider"`
	Model            string `json:"model,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	Degraded         bool   `json:"degraded,omitempty"`
}

type Result struct {
	Status     string              `json:"status"`
	Completion *CompletionResponse `json:"completion,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

type ChatRequest struct {
	Message        string `json:"message" validate:"required"`
	ConversationID string `json:"conversationID,omitempty"`
	ProjectID      string `json:"projectID,omitempty"`
	UserID         string `json:"userID,omitempty"`
}

type CreateUserRequest struct {
	Email string `json:"email" validate:"required"`
	Name  string `json:"name"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"ownerID,omitempty"`
}

type RenameConversationRequest struct {
	Title string `json:"title" validate:"required"`
}

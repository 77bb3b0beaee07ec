package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	CompletionInit InternalStatus = "Init"
	HistoryCall    InternalStatus = "History"
	ProviderCall   InternalStatus = "Provider"
	PersistCall    InternalStatus = "Persist"
	UsageCall      InternalStatus = "Usage"

	ExtractInit       InternalStatus = "ExtractInit"
	ExtractProcessing InternalStatus = "ExtractProcessing"
	Error             InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeCompletion JobType = "Completion"
	JobTypeExtract    JobType = "Extract"
)

type Job struct {
	Id             string         `json:"id"`
	ConversationId string         `json:"conversation_id"`
	ProjectId      string         `json:"project_id,omitempty"`
	UserId         string         `json:"user_id,omitempty"`
	TraceId        string         `json:"trace_id"`
	JobType        JobType        `json:"job_type"`
	JobPayload     JobPayload     `json:"job_payload"`
	Error          JobError       `json:"error,omitempty"`
	CreatedTime    time.Time      `json:"created_time"`
	EndTime        time.Time      `json:"end_time,omitempty"`
	Status         JobStatus      `json:"status"`
	CurrentStep    InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Prompt   string `json:"prompt,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	PromptTokens     int  `json:"prompt_tokens,omitempty"`
	CompletionTokens int  `json:"completion_tokens,omitempty"`
	Degraded         bool `json:"degraded,omitempty"` //answered by the canned fallback

	FileId       string `json:"file_id,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	FileLocation string `json:"file_location,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

type MessageStore interface {
	ValidateConversationId(ctx context.Context, id string) bool
	TrySaveExchange(ctx context.Context, id string, payload JobPayload) error
	InitNewConversation(ctx context.Context, id string) error
	GetMessageHistory(ctx context.Context, conversationId string) (error, []string)
}

package adapter

import (
	"fmt"
	"time"

	"github.com/dmarti/chatbridge/internal/api"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:     string(job.Status),
		Completion: ToCompletionResponse(job.JobPayload),
	}

	return api.JobResponse{
		Id:             job.Id,
		ConversationId: job.ConversationId,
		StartTime:      job.CreatedTime,
		EndTime:        job.EndTime,
		Error:          errorPtr,
		Result:         result,
	}
}

func ToCompletionResponse(payload jobModel.JobPayload) *api.CompletionResponse {
	if payload.Answer == "" && payload.Provider == "" {
		return nil
	}

	return &api.CompletionResponse{
		Prompt:           payload.Prompt,
		Answer:           payload.Answer,
		Provider:         payload.Provider,
		Model:            payload.Model,
		PromptTokens:     payload.PromptTokens,
		CompletionTokens: payload.CompletionTokens,
		Degraded:         payload.Degraded,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:             id,
		ConversationId: "",
		StartTime:      time.Time{},
		EndTime:        time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

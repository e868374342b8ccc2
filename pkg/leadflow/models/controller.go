package models

import (
	"time"

	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
)

type SearchRunsRequest struct {
	WorkflowName string `json:"workflowName"`
	Status       string `json:"status"`
	Limit        int64  `json:"limit"`
	Offset       int64  `json:"offset"`
}
type SearchRunsResponse struct {
	Results int          `json:"results"`
	Runs    []domain.Run `json:"runs"`
	Offset  int64        `json:"offset"`
}

type StartRunRequest struct {
	WorkflowName string `json:"workflowName"`
}
type StartRunResponse struct {
	ID string `json:"id"`
}

// RunApiResponse represents the API response for a single run.
type RunApiResponse struct {
	ID           string    `json:"id"`
	WorkflowName string    `json:"workflowName"`
	Mode         string    `json:"mode"`
	Status       string    `json:"status"`
	Created      time.Time `json:"created"`
	Started      time.Time `json:"started,omitempty"`
	Finished     time.Time `json:"finished,omitempty"`
	ExecutorID   int64     `json:"executorId,omitempty"`
	TaskCount    int       `json:"taskCount"`
	FailedCount  int       `json:"failedCount"`
}

type SetGoalRequest struct {
	Goal int `json:"goal"`
}
type SetGoalResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

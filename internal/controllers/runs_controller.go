package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/leadflowhq/leadflow/internal/engine"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"
)

// RunsController holds dependencies for the workflow run HTTP endpoints.
type RunsController struct {
	AuthController
	Manager *engine.Manager
}

func NewRunsController(manager *engine.Manager, userRepo engine.UserRepo) *RunsController {
	return &RunsController{Manager: manager, AuthController: AuthController{
		UserRepo: userRepo,
	}}
}

func (c *RunsController) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.StartRunRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if req.WorkflowName == "" {
		http.Error(w, "workflowName is required", http.StatusBadRequest)
		return
	}
	if c.Manager.Workspace.Workflow(req.WorkflowName) == nil {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}

	id, err := c.Manager.StartRun(req.WorkflowName)
	if err != nil {
		slog.Error("Failed to start run", "workflow", req.WorkflowName, "error", err)
		http.Error(w, "failed to start run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.StartRunResponse{ID: id})
}

func (c *RunsController) handleGetRunById(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	result, err := c.Manager.RunDetails(id)
	if err != nil || result == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	apiResult := mapRunToApiRun(result)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResult)
}

func mapRunToApiRun(result *domain.Run) models.RunApiResponse {
	return models.RunApiResponse{
		ID:           result.ID,
		WorkflowName: result.WorkflowName,
		Mode:         result.Mode,
		Status:       result.Status,
		Created:      result.Created,
		Started: func() time.Time {
			if result.Started.Valid {
				return result.Started.Time
			}
			return time.Time{}
		}(),
		Finished: func() time.Time {
			if result.Finished.Valid {
				return result.Finished.Time
			}
			return time.Time{}
		}(),
		ExecutorID: func() int64 {
			if result.ExecutorID.Valid {
				return result.ExecutorID.Int64
			}
			return 0
		}(),
		TaskCount:   result.TaskCount,
		FailedCount: result.FailedCount,
	}
}

func (c *RunsController) handleSearchRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.SearchRunsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	//max of 1000 results is allowed
	if req.Limit > 1000 {
		slog.Warn("limit cannot be greater than 1000")
		http.Error(w, "limit cannot be greater than 1000", http.StatusBadRequest)
		return
	}

	results, err := c.Manager.SearchRuns(req)
	if err != nil {
		slog.Error("Failed to search runs", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if results != nil {
		searchResponse := models.SearchRunsResponse{
			Results: len(*results),
			Offset:  req.Offset,
			Runs:    *results,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(searchResponse)
		return
	}
}

// handleGetTasksForRun returns the recorded task results of a run in
// task order.
func (c *RunsController) handleGetTasksForRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	results, err := c.Manager.TaskResults(id)
	if err != nil {
		slog.Error("Failed to load task results", "run_id", id, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if results != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(results)
		return
	}
}

// handleListWorkflows returns the workflows declared in the workspace
// manifest.
func (c *RunsController) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(c.Manager.Workflows())
}

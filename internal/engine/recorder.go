package engine

import (
	"database/sql"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"
)

// Recorder persists run and task outcomes. A nil Recorder disables
// recording, which keeps one-shot runs usable without a database.
type Recorder struct {
	runs  RunRepo
	tasks TaskResultRepo
}

func NewRecorder(runs RunRepo, tasks TaskResultRepo) *Recorder {
	if runs == nil || tasks == nil {
		return nil
	}
	return &Recorder{runs: runs, tasks: tasks}
}

func (r *Recorder) RunCreated(run *domain.Run) {
	if r == nil {
		return
	}
	if err := r.runs.Save(run); err != nil {
		slog.Error("Failed to record run", "run_id", run.ID, "error", err)
	}
}

func (r *Recorder) RunStarted(id string) {
	if r == nil {
		return
	}
	if err := r.runs.MarkRunStarted(id); err != nil {
		slog.Error("Failed to mark run started", "run_id", id, "error", err)
	}
}

func (r *Recorder) RunFinished(id string, status models.RunStatus, failedCount int) {
	if r == nil {
		return
	}
	if err := r.runs.MarkRunFinished(id, string(status), failedCount); err != nil {
		slog.Error("Failed to mark run finished", "run_id", id, "error", err)
	}
}

// TaskStarted records a task row and returns its id, or 0 when
// recording is disabled.
func (r *Recorder) TaskStarted(t *domain.TaskResult) int64 {
	if r == nil {
		return 0
	}
	id, err := r.tasks.Save(t)
	if err != nil {
		slog.Error("Failed to record task", "run_id", t.RunID, "error", err)
		return 0
	}
	return id
}

func (r *Recorder) TaskReady(id int64) {
	if r == nil || id == 0 {
		return
	}
	if err := r.tasks.UpdateStatus(id, string(models.TaskReady)); err != nil {
		slog.Error("Failed to mark task ready", "task_id", id, "error", err)
	}
}

func (r *Recorder) TaskOutcome(id int64, status models.TaskStatus, exitCode sql.NullInt32, output string) {
	if r == nil || id == 0 {
		return
	}
	if err := r.tasks.UpdateOutcome(id, string(status), exitCode, output); err != nil {
		slog.Error("Failed to record task outcome", "task_id", id, "error", err)
	}
}

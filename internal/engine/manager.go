package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/internal/repository"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"
	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

var runQueue chan RunRequest // Initialized in NewManager using system setting

// RunRequest is one queued execution of a named workflow.
type RunRequest struct {
	RunID        string
	WorkflowName string
}

type Manager struct {
	Workspace      *workspace.Workspace
	RunRepo        RunRepo
	TaskResultRepo TaskResultRepo
	executorRepo   ExecutorRepo
	executorID     int64
	wakeup         chan struct{}
	clock          core.Clock
	runner         *Runner
}

func NewManager(ws *workspace.Workspace, runRepo RunRepo, taskResultRepo TaskResultRepo,
	executorRepo ExecutorRepo, clock core.Clock) *Manager {
	queueSize := config.GetSystemSettingInteger(config.RUNNER_QUEUE_SIZE)
	if queueSize <= 0 {
		queueSize = 10 // fallback default
	}
	runQueue = make(chan RunRequest, queueSize)

	return &Manager{
		Workspace:      ws,
		RunRepo:        runRepo,
		TaskResultRepo: taskResultRepo,
		executorRepo:   executorRepo,
		wakeup:         make(chan struct{}, 1),
		clock:          clock,
		runner:         NewRunner(ws, NewRecorder(runRepo, taskResultRepo), clock),
	}
}

// Workflows lists the workflows declared in the workspace manifest.
func (m *Manager) Workflows() []workspace.Workflow {
	return m.Workspace.Workflows
}

// SearchRuns delegates to the repository to search based on request filters.
func (m *Manager) SearchRuns(req models.SearchRunsRequest) (*[]domain.Run, error) {
	return m.RunRepo.SearchRuns(req)
}

// Overview exposes grouped counts per workflow for the home dashboard.
func (m *Manager) Overview() ([]repository.RunOverviewRow, error) {
	return m.RunRepo.GetRunOverview()
}

// RecentRuns exposes the latest runs for the dashboard.
func (m *Manager) RecentRuns(limit int) (*[]domain.Run, error) {
	return m.RunRepo.GetRecentRuns(limit)
}

// RunDetails returns a single run by id.
func (m *Manager) RunDetails(id string) (*domain.Run, error) {
	return m.RunRepo.FindByID(id)
}

// TaskResults returns the recorded task outcomes of a run in order.
func (m *Manager) TaskResults(runID string) (*[]domain.TaskResult, error) {
	return m.TaskResultRepo.FindAllByRunID(runID)
}

// ListExecutors returns recent executors ordered by last_active desc.
func (m *Manager) ListExecutors(limit int) ([]*domain.Executor, error) {
	return m.executorRepo.GetExecutorsByLastActive(limit)
}

// StartEngine registers this executor instance, starts the worker pool
// and sweeps for stale runs at the given interval.
func (m *Manager) StartEngine(ctx context.Context, sweepInterval time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	registerExecutorInstance(ctx, m)

	workers := config.GetSystemSettingInteger(config.RUNNER_WORKERS)
	slog.Info("Starting workflow runner", "workers", workers, "queue_size", cap(runQueue))
	for i := 0; i < workers; i++ {
		go Worker(ctx, i, m)
	}

	slog.Info("Workflow runner started", "sweep_interval", sweepInterval.String())

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Workflow runner stopping due to context cancel")
			return
		case <-ticker.C:
			m.repairStaleRuns(ctx)
		case <-m.wakeup:
			m.repairStaleRuns(ctx)
		}
	}
}

// StartRun records a new run of the named workflow and hands it to the
// worker pool.
func (m *Manager) StartRun(workflowName string) (string, error) {
	wf := m.Workspace.Workflow(workflowName)
	if wf == nil {
		return "", fmt.Errorf("workflow not found: %s", workflowName)
	}

	run := &domain.Run{
		ID:           uuid.NewString(),
		WorkflowName: wf.Name,
		Mode:         wf.EffectiveMode(),
		Status:       string(models.RunCreated),
		Created:      m.clock.Now(),
		TaskCount:    CountTasks(m.Workspace, wf),
	}
	if m.executorID != 0 {
		run.ExecutorID = sql.NullInt64{Int64: m.executorID, Valid: true}
	}
	m.runner.recorder.RunCreated(run)

	select {
	case runQueue <- RunRequest{RunID: run.ID, WorkflowName: wf.Name}:
	default:
		return "", fmt.Errorf("run queue is full")
	}
	slog.Info("Queued workflow run", "run_id", run.ID, "workflow", wf.Name)
	return run.ID, nil
}

// repairStaleRuns finds runs that are marked running but whose executor
// stopped heartbeating, and queues them again from the start.
func (m *Manager) repairStaleRuns(ctx context.Context) {
	if m.RunRepo == nil {
		return
	}
	afterMinutes := config.GetSystemSettingInteger(config.RUNNER_STALE_RUNS_REPAIR_AFTER_MINUTES)
	stale, err := m.RunRepo.FindStaleRuns(afterMinutes, 100)
	if err != nil {
		slog.Error("Error finding stale runs", "error", err)
		return
	}
	for _, run := range *stale {
		slog.Warn("Repairing stale run", "run_id", run.ID, "workflow", run.WorkflowName, "created", run.Created)
		select {
		case runQueue <- RunRequest{RunID: run.ID, WorkflowName: run.WorkflowName}:
		default:
			slog.WarnContext(ctx, "Run queue full, stale run left for the next sweep", "run_id", run.ID)
			return
		}
	}
}

func registerExecutorInstance(ctx context.Context, m *Manager) {
	if m.executorRepo == nil {
		return
	}
	name := config.GetSystemSettingString(config.EXECUTOR_NAME)
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			name = "leadflow-runner"
		} else {
			name = hostname
		}
	}
	exec := &domain.Executor{Name: name, Started: time.Now(), LastActive: time.Now()}
	id, err := m.executorRepo.Save(exec)
	if err != nil {
		slog.Error("Failed to register executor", "error", err)
	} else {
		m.executorID = id
		slog.Info("Registered executor", "executor_id", id, "name", name)
		// Start heartbeat ticker to update last_active every 30s
		hb := time.NewTicker(30 * time.Second)
		go func(executorID int64) {
			for range hb.C {
				if err := m.executorRepo.UpdateLastActive(executorID, time.Now()); err != nil {
					slog.Error("Failed to update executor last_active", "executor_id", executorID, "error", err)
				} else {
					slog.Debug("Updated executor last_active", "executor_id", executorID)
				}
			}
		}(id)
	}
}

func (m *Manager) Wakeup() {
	slog.Info("Wakeup Manager called")
	select {
	case m.wakeup <- struct{}{}:
	default:
	}
}

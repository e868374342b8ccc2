package engine

import (
	"context"
	"database/sql"
	"io"
	"net"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leadflowhq/leadflow/internal/repository"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"
	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

type MockRunRepo struct {
	SaveFunc            func(run *domain.Run) error
	FindByIDFunc        func(id string) (*domain.Run, error)
	MarkRunStartedFunc  func(id string) error
	MarkRunFinishedFunc func(id string, status string, failedCount int) error
	FindStaleRunsFunc   func(olderThanMinutes int, limit int) (*[]domain.Run, error)
	SearchRunsFunc      func(req models.SearchRunsRequest) (*[]domain.Run, error)
	GetRunOverviewFunc  func() ([]repository.RunOverviewRow, error)
	GetRecentRunsFunc   func(limit int) (*[]domain.Run, error)
}

func (m *MockRunRepo) Save(run *domain.Run) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(run)
	}
	return nil
}
func (m *MockRunRepo) FindByID(id string) (*domain.Run, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, nil
}
func (m *MockRunRepo) MarkRunStarted(id string) error {
	if m.MarkRunStartedFunc != nil {
		return m.MarkRunStartedFunc(id)
	}
	return nil
}
func (m *MockRunRepo) MarkRunFinished(id string, status string, failedCount int) error {
	if m.MarkRunFinishedFunc != nil {
		return m.MarkRunFinishedFunc(id, status, failedCount)
	}
	return nil
}
func (m *MockRunRepo) FindStaleRuns(olderThanMinutes int, limit int) (*[]domain.Run, error) {
	if m.FindStaleRunsFunc != nil {
		return m.FindStaleRunsFunc(olderThanMinutes, limit)
	}
	return &[]domain.Run{}, nil
}
func (m *MockRunRepo) SearchRuns(req models.SearchRunsRequest) (*[]domain.Run, error) {
	if m.SearchRunsFunc != nil {
		return m.SearchRunsFunc(req)
	}
	return nil, nil
}
func (m *MockRunRepo) GetRunOverview() ([]repository.RunOverviewRow, error) {
	if m.GetRunOverviewFunc != nil {
		return m.GetRunOverviewFunc()
	}
	return nil, nil
}
func (m *MockRunRepo) GetRecentRuns(limit int) (*[]domain.Run, error) {
	if m.GetRecentRunsFunc != nil {
		return m.GetRecentRunsFunc(limit)
	}
	return nil, nil
}

// MockTaskResultRepo records saved tasks and the status history per task id.
type MockTaskResultRepo struct {
	mu      sync.Mutex
	saved   []domain.TaskResult
	history map[int64][]string
	outputs map[int64]string
	exits   map[int64]sql.NullInt32
}

func (m *MockTaskResultRepo) record(id int64, status string) {
	if m.history == nil {
		m.history = map[int64][]string{}
	}
	m.history[id] = append(m.history[id], status)
}

func (m *MockTaskResultRepo) Save(t *domain.TaskResult) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, *t)
	return int64(len(m.saved)), nil
}
func (m *MockTaskResultRepo) UpdateOutcome(id int64, status string, exitCode sql.NullInt32, output string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id, status)
	if m.outputs == nil {
		m.outputs = map[int64]string{}
		m.exits = map[int64]sql.NullInt32{}
	}
	m.outputs[id] = output
	m.exits[id] = exitCode
	return nil
}
func (m *MockTaskResultRepo) UpdateStatus(id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id, status)
	return nil
}
func (m *MockTaskResultRepo) FindByID(id int64) (*domain.TaskResult, error) {
	return nil, nil
}
func (m *MockTaskResultRepo) FindAllByRunID(runID string) (*[]domain.TaskResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.TaskResult{}, m.saved...)
	return &out, nil
}

func testWorkspace() *workspace.Workspace {
	return &workspace.Workspace{
		Run: "Main",
		Workflows: []workspace.Workflow{
			{
				Name: "Main",
				Tasks: []workspace.Task{
					{Exec: "true"},
					{Exec: "true"},
				},
			},
			{
				Name: "Failing",
				Tasks: []workspace.Task{
					{Exec: "false"},
					{Exec: "true"},
				},
			},
			{
				Name: "Both",
				Mode: workspace.ModeParallel,
				Tasks: []workspace.Task{
					{Workflow: "Main"},
					{Workflow: "Failing"},
				},
			},
		},
	}
}

func newTestRunner(ws *workspace.Workspace, tasks *MockTaskResultRepo, runs *MockRunRepo) *Runner {
	r := NewRunner(ws, NewRecorder(runs, tasks), core.RealClock{})
	r.SetOutput(io.Discard)
	return r
}

func TestExecuteRunSequential(t *testing.T) {
	var finishedStatus string
	var finishedFailed int
	runs := &MockRunRepo{
		MarkRunFinishedFunc: func(id string, status string, failedCount int) error {
			finishedStatus = status
			finishedFailed = failedCount
			return nil
		},
	}
	tasks := &MockTaskResultRepo{}

	runner := newTestRunner(testWorkspace(), tasks, runs)
	if err := runner.ExecuteRun(context.Background(), "run-1", "Main"); err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	if finishedStatus != string(models.RunFinished) {
		t.Errorf("expected status FINISHED, got %s", finishedStatus)
	}
	if finishedFailed != 0 {
		t.Errorf("expected 0 failed tasks, got %d", finishedFailed)
	}
	if len(tasks.saved) != 2 {
		t.Errorf("expected 2 task records, got %d", len(tasks.saved))
	}
}

func TestExecuteRunSequentialStopsAtFirstFailure(t *testing.T) {
	var finishedStatus string
	var finishedFailed int
	runs := &MockRunRepo{
		MarkRunFinishedFunc: func(id string, status string, failedCount int) error {
			finishedStatus = status
			finishedFailed = failedCount
			return nil
		},
	}
	tasks := &MockTaskResultRepo{}

	runner := newTestRunner(testWorkspace(), tasks, runs)
	if err := runner.ExecuteRun(context.Background(), "run-2", "Failing"); err == nil {
		t.Fatal("expected an error for a failing workflow")
	}
	if finishedStatus != string(models.RunFailed) {
		t.Errorf("expected status FAILED, got %s", finishedStatus)
	}
	if finishedFailed != 1 {
		t.Errorf("expected 1 failed task, got %d", finishedFailed)
	}
	// the second task never ran
	if len(tasks.saved) != 1 {
		t.Errorf("expected 1 task record, got %d", len(tasks.saved))
	}
}

func TestExecuteRunParallelIsolatesFailures(t *testing.T) {
	var finishedStatus string
	var finishedFailed int
	runs := &MockRunRepo{
		MarkRunFinishedFunc: func(id string, status string, failedCount int) error {
			finishedStatus = status
			finishedFailed = failedCount
			return nil
		},
	}
	tasks := &MockTaskResultRepo{}

	runner := newTestRunner(testWorkspace(), tasks, runs)
	if err := runner.ExecuteRun(context.Background(), "run-3", "Both"); err == nil {
		t.Fatal("expected an error when one branch fails")
	}
	if finishedStatus != string(models.RunFailed) {
		t.Errorf("expected status FAILED, got %s", finishedStatus)
	}
	if finishedFailed != 1 {
		t.Errorf("expected 1 failed task, got %d", finishedFailed)
	}
	// Main runs both tasks, Failing stops after its first
	if len(tasks.saved) != 3 {
		t.Errorf("expected 3 task records, got %d", len(tasks.saved))
	}
}

func TestExecuteRunUnknownWorkflow(t *testing.T) {
	runner := newTestRunner(testWorkspace(), &MockTaskResultRepo{}, &MockRunRepo{})
	if err := runner.ExecuteRun(context.Background(), "run-4", "Nope"); err == nil {
		t.Fatal("expected an error for an unknown workflow")
	}
}

func TestRunCommandRecordsExitCode(t *testing.T) {
	tasks := &MockTaskResultRepo{}
	runner := newTestRunner(testWorkspace(), tasks, &MockRunRepo{})

	var idx atomic.Int32
	failed := runner.runCommand(context.Background(), "run-5", "exec", "exit 3", 0, &idx)
	if failed != 1 {
		t.Fatalf("expected a failure, got %d", failed)
	}
	if got := tasks.exits[1]; !got.Valid || got.Int32 != 3 {
		t.Errorf("expected exit code 3, got %+v", got)
	}
	if got := tasks.history[1]; len(got) != 1 || got[0] != string(models.TaskFailed) {
		t.Errorf("expected a single FAILED status, got %v", got)
	}
}

func TestRunCommandCapturesOutput(t *testing.T) {
	tasks := &MockTaskResultRepo{}
	runner := newTestRunner(testWorkspace(), tasks, &MockRunRepo{})

	var idx atomic.Int32
	if failed := runner.runCommand(context.Background(), "run-6", "exec", "echo hello", 0, &idx); failed != 0 {
		t.Fatalf("expected success, got %d failures", failed)
	}
	if !strings.Contains(tasks.outputs[1], "hello") {
		t.Errorf("expected captured output to contain hello, got %q", tasks.outputs[1])
	}
}

func TestRunCommandWithOpenPortBecomesReady(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	tasks := &MockTaskResultRepo{}
	runner := newTestRunner(testWorkspace(), tasks, &MockRunRepo{})

	var idx atomic.Int32
	if failed := runner.runCommand(context.Background(), "run-7", "exec", "sleep 0.1", port, &idx); failed != 0 {
		t.Fatalf("expected success, got %d failures", failed)
	}
	want := []string{string(models.TaskReady), string(models.TaskFinished)}
	if !slices.Equal(tasks.history[1], want) {
		t.Errorf("expected status history %v, got %v", want, tasks.history[1])
	}
}

func TestWaitForPortTimesOut(t *testing.T) {
	runner := newTestRunner(testWorkspace(), &MockTaskResultRepo{}, &MockRunRepo{})
	runner.portWaitTimeout = 100 * time.Millisecond

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	if err := runner.waitForPort(context.Background(), port); err == nil {
		t.Errorf("expected a timeout waiting on closed port %d", port)
	}
}

func TestCountTasks(t *testing.T) {
	ws := testWorkspace()
	if got := CountTasks(ws, ws.Workflow("Main")); got != 2 {
		t.Errorf("expected 2 tasks for Main, got %d", got)
	}
	if got := CountTasks(ws, ws.Workflow("Both")); got != 4 {
		t.Errorf("expected 4 tasks for Both, got %d", got)
	}
}

package engine

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"
	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

// Only the tail of a task's output is persisted, which is the
// interesting part of a crash log.
const maxTaskOutput = 64 * 1024

// installCommands maps a module language to the command that installs
// its dependencies.
var installCommands = map[string]string{
	"python": "pip install -r requirements.txt",
	"nodejs": "npm install",
}

// Runner executes workflows from a workspace manifest. Commands run
// through the shell, and tasks with a port wait are polled until they
// accept connections.
type Runner struct {
	workspace       *workspace.Workspace
	recorder        *Recorder
	clock           core.Clock
	portWaitTimeout time.Duration
	output          io.Writer
}

func NewRunner(ws *workspace.Workspace, recorder *Recorder, clock core.Clock) *Runner {
	timeout, err := time.ParseDuration(config.GetSystemSettingString(config.RUNNER_PORT_WAIT_TIMEOUT))
	if err != nil || timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Runner{
		workspace:       ws,
		recorder:        recorder,
		clock:           clock,
		portWaitTimeout: timeout,
		output:          os.Stdout,
	}
}

// SetOutput redirects live task output, which otherwise goes to stdout.
func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

// CountTasks returns the number of commands a workflow will run,
// following referenced workflows.
func CountTasks(ws *workspace.Workspace, wf *workspace.Workflow) int {
	count := 0
	for i := range wf.Tasks {
		if child := ws.Workflow(wf.Tasks[i].Workflow); wf.Tasks[i].Workflow != "" && child != nil {
			count += CountTasks(ws, child)
			continue
		}
		count++
	}
	return count
}

// ExecuteRun runs the named workflow to completion and records the
// outcome. It returns an error when any task failed.
func (r *Runner) ExecuteRun(ctx context.Context, runID string, workflowName string) error {
	wf := r.workspace.Workflow(workflowName)
	if wf == nil {
		r.recorder.RunFinished(runID, models.RunFailed, 0)
		return fmt.Errorf("workflow not found: %s", workflowName)
	}

	slog.InfoContext(ctx, "Running workflow", "run_id", runID, "workflow", wf.Name, "mode", wf.EffectiveMode())
	r.recorder.RunStarted(runID)

	var taskIndex atomic.Int32
	failed := r.executeWorkflow(ctx, runID, wf, &taskIndex)

	status := models.RunFinished
	if failed > 0 {
		status = models.RunFailed
	}
	r.recorder.RunFinished(runID, status, failed)
	slog.InfoContext(ctx, "Workflow run finished", "run_id", runID, "workflow", wf.Name, "status", status, "failed_tasks", failed)

	if failed > 0 {
		return fmt.Errorf("workflow %s: %d task(s) failed", wf.Name, failed)
	}
	return nil
}

// executeWorkflow runs the tasks of one workflow and returns how many
// failed. Sequential workflows stop at the first failure, parallel ones
// let every task finish on its own.
func (r *Runner) executeWorkflow(ctx context.Context, runID string, wf *workspace.Workflow, taskIndex *atomic.Int32) int {
	if wf.EffectiveMode() == workspace.ModeParallel {
		var wg sync.WaitGroup
		var failed atomic.Int32
		for i := range wf.Tasks {
			wg.Add(1)
			go func(task *workspace.Task) {
				defer wg.Done()
				failed.Add(int32(r.executeTask(ctx, runID, task, taskIndex)))
			}(&wf.Tasks[i])
		}
		wg.Wait()
		return int(failed.Load())
	}

	failed := 0
	for i := range wf.Tasks {
		n := r.executeTask(ctx, runID, &wf.Tasks[i], taskIndex)
		failed += n
		if n > 0 {
			slog.WarnContext(ctx, "Stopping workflow after failed task", "run_id", runID, "workflow", wf.Name, "task_index", i)
			break
		}
	}
	return failed
}

func (r *Runner) executeTask(ctx context.Context, runID string, task *workspace.Task, taskIndex *atomic.Int32) int {
	kind, err := task.Kind()
	if err != nil {
		slog.ErrorContext(ctx, "Skipping invalid task", "run_id", runID, "error", err)
		return 1
	}

	switch kind {
	case workspace.TaskWorkflow:
		child := r.workspace.Workflow(task.Workflow)
		if child == nil {
			slog.ErrorContext(ctx, "Referenced workflow not found", "run_id", runID, "workflow", task.Workflow)
			return 1
		}
		slog.InfoContext(ctx, "Entering referenced workflow", "run_id", runID, "workflow", child.Name)
		return r.executeWorkflow(ctx, runID, child, taskIndex)

	case workspace.TaskInstall:
		command, ok := installCommands[task.Install]
		if !ok {
			slog.ErrorContext(ctx, "No install command for target", "run_id", runID, "target", task.Install)
			return 1
		}
		return r.runCommand(ctx, runID, string(kind), command, 0, taskIndex)

	default:
		return r.runCommand(ctx, runID, string(kind), task.Exec, task.WaitForPort, taskIndex)
	}
}

// runCommand executes one shell command, optionally waiting for a port
// to open while the command keeps running. Returns 1 on failure.
func (r *Runner) runCommand(ctx context.Context, runID string, taskType string, command string, waitPort int, taskIndex *atomic.Int32) int {
	taskID := r.recorder.TaskStarted(&domain.TaskResult{
		RunID:     runID,
		TaskIndex: int(taskIndex.Add(1) - 1),
		Type:      taskType,
		Command:   command,
		Status:    string(models.TaskRunning),
		Started:   r.clock.Now(),
	})

	slog.InfoContext(ctx, "Executing task", "run_id", runID, "type", taskType, "command", command)

	var buf bytes.Buffer
	out := io.MultiWriter(r.output, &buf)
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		slog.ErrorContext(ctx, "Failed to start command", "run_id", runID, "command", command, "error", err)
		r.recorder.TaskOutcome(taskID, models.TaskFailed, sql.NullInt32{}, err.Error())
		return 1
	}

	if waitPort > 0 {
		if err := r.waitForPort(ctx, waitPort); err != nil {
			slog.ErrorContext(ctx, "Port wait failed", "run_id", runID, "port", waitPort, "error", err)
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			r.recorder.TaskOutcome(taskID, models.TaskFailed, sql.NullInt32{}, clipOutput(buf.String())+"\n"+err.Error())
			return 1
		}
		slog.InfoContext(ctx, "Port is accepting connections", "run_id", runID, "port", waitPort)
		r.recorder.TaskReady(taskID)
	}

	waitErr := cmd.Wait()
	exitCode := sql.NullInt32{}
	if cmd.ProcessState != nil {
		exitCode = sql.NullInt32{Int32: int32(cmd.ProcessState.ExitCode()), Valid: true}
	}

	if waitErr != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Task command failed", "run_id", runID, "command", command, "exit_code", exitCode.Int32)
		r.recorder.TaskOutcome(taskID, models.TaskFailed, exitCode, clipOutput(buf.String()))
		return 1
	}

	r.recorder.TaskOutcome(taskID, models.TaskFinished, exitCode, clipOutput(buf.String()))
	return 0
}

// waitForPort polls until the port accepts tcp connections, backing off
// between attempts up to the configured timeout.
func (r *Runner) waitForPort(ctx context.Context, port int) error {
	retry := models.RetryConfig{
		MaxRetryCount:    20,
		RetryIntervalMin: 250 * time.Millisecond,
		RetryIntervalMax: 2 * time.Second,
	}
	addr := net.JoinHostPort("localhost", strconv.Itoa(port))
	deadline := r.clock.Now().Add(r.portWaitTimeout)

	for attempt := 0; ; attempt++ {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if !r.clock.Now().Before(deadline) {
			return fmt.Errorf("port %d not accepting connections after %s", port, r.portWaitTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(retry.SlidingInterval(attempt)):
		}
	}
}

func clipOutput(s string) string {
	if len(s) > maxTaskOutput {
		return s[len(s)-maxTaskOutput:]
	}
	return s
}

package engine

import (
	"context"
	"log/slog"
)

// Worker function that processes runs from the queue
func Worker(ctx context.Context, id int, m *Manager) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-runQueue:
			slog.Info("Worker starting run", "worker_id", id, "run_id", req.RunID)
			if err := m.runner.ExecuteRun(ctx, req.RunID, req.WorkflowName); err != nil {
				slog.Error("Run failed", "worker_id", id, "run_id", req.RunID, "error", err)
			}
			slog.Info("Worker finished run", "worker_id", id, "run_id", req.RunID)
		}
	}
}

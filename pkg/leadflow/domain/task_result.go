package domain

import "time"
import "database/sql"

// TaskResult is the outcome of a single task within a run. Output holds
// a bounded tail of the command's combined stdout and stderr.
type TaskResult struct {
	ID        int64
	RunID     string
	TaskIndex int
	Type      string
	Command   string
	Status    string
	ExitCode  sql.NullInt32
	Output    string
	Started   time.Time
	Finished  sql.NullTime
}

package domain

import "time"
import "database/sql"

// Run is one recorded execution of a manifest workflow.
type Run struct {
	ID           string
	WorkflowName string
	Mode         string
	Status       string
	Created      time.Time
	Started      sql.NullTime
	Finished     sql.NullTime
	ExecutorID   sql.NullInt64
	TaskCount    int
	FailedCount  int
}

package repository

import (
	"database/sql"
	"fmt"

	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	domain "github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"

	"strings"
	"time"
)

type RunRepository struct {
	db    *sql.DB
	clock core.Clock
}

// RunOverviewRow holds grouped counts by workflow name
type RunOverviewRow struct {
	WorkflowName  string
	CreatedCount  int
	RunningCount  int
	FinishedCount int
	FailedCount   int
}

const ALL_RUN_COLUMNS = ` id, workflow_name, mode, status, created, started, finished,
		       executor_id, task_count, failed_count `

func NewRunRepository(db *sql.DB, clock core.Clock) *RunRepository {
	return &RunRepository{db: db, clock: clock}
}

// Save inserts a new run row. The caller assigns the uuid id before
// saving, so no generated key comes back from the database.
func (r *RunRepository) Save(run *domain.Run) error {
	if run.Created.IsZero() {
		run.Created = r.clock.Now().UTC()
	}
	vals := []interface{}{run.ID, run.WorkflowName, run.Mode, run.Status, formatDateInDatabase(run.Created),
		formatDateInDatabaseNull(run.Started), formatDateInDatabaseNull(run.Finished), run.ExecutorID,
		run.TaskCount, run.FailedCount}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO runs (
		id, workflow_name, mode, status, created, started, finished,
		executor_id, task_count, failed_count
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

func formatDateInDatabase(created time.Time) string {
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_SQLLITE {
		return created.UTC().Format("2006-01-02 15:04:05.000")
	}
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_MYSQL {
		return created.UTC().Format("2006-01-02 15:04:05.000000")
	}
	// PostgreSQL supports RFC3339
	return created.UTC().Format(time.RFC3339Nano)

}
func formatDateInDatabaseNull(created sql.NullTime) interface{} {
	if !created.Valid {
		return nil
	}

	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_SQLLITE {
		// Format as string for SQLite
		return created.Time.UTC().Format("2006-01-02 15:04:05.000")
	}

	// MySQL also needs string format (without T and Z)
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_MYSQL {
		return created.Time.UTC().Format("2006-01-02 15:04:05.000000")
	}

	// Return time.Time directly for PostgreSQL
	return created.Time

}

// FindByID fetches a run by its uuid. Returns (nil, nil) if not found.
func (r *RunRepository) FindByID(id string) (*domain.Run, error) {
	query := `
		SELECT ` + ALL_RUN_COLUMNS + `
		FROM runs WHERE id = ` + placeholder(1) + `
	`

	var run domain.Run
	err := r.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.WorkflowName,
		&run.Mode,
		&run.Status,
		&run.Created,
		&run.Started,
		&run.Finished,
		&run.ExecutorID,
		&run.TaskCount,
		&run.FailedCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// MarkRunStarted flips a run to RUNNING and stamps its start time.
func (r *RunRepository) MarkRunStarted(id string) error {
	query := `
		UPDATE runs
		SET status = 'RUNNING', started = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(1) + `
	`
	_, err := r.db.Exec(query, id)
	return err
}

// MarkRunFinished records the terminal status with the failed task count.
func (r *RunRepository) MarkRunFinished(id string, status string, failedCount int) error {
	query := `
		UPDATE runs
		SET status = ` + placeholder(1) + `, failed_count = ` + placeholder(2) + `, finished = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(3) + `
	`
	_, err := r.db.Exec(query, status, failedCount, id)
	return err
}

// FindStaleRuns returns runs still marked RUNNING whose executor has
// stopped heartbeating, so the sweep can queue them again.
func (r *RunRepository) FindStaleRuns(olderThanMinutes int, limit int) (*[]domain.Run, error) {
	cutoff := r.clock.Now().UTC().Add(-time.Duration(olderThanMinutes) * time.Minute)
	cutoffStr := formatDateInDatabase(cutoff)
	query := `
		SELECT ` + ALL_RUN_COLUMNS + `
		FROM runs
		WHERE status = 'RUNNING'
		  AND ` + dateBeforeNow("created", cutoffStr) + `
		  AND executor_id NOT IN (
		      SELECT id
		      FROM executors
		      WHERE last_active > ` + placeholder(1) + `
		  )
		ORDER BY created ASC
		LIMIT ` + placeholder(2) + `
		`
	rows, err := r.db.Query(query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		err := rows.Scan(
			&run.ID,
			&run.WorkflowName,
			&run.Mode,
			&run.Status,
			&run.Created,
			&run.Started,
			&run.Finished,
			&run.ExecutorID,
			&run.TaskCount,
			&run.FailedCount,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return &runs, nil
}

func (r *RunRepository) SearchRuns(req models.SearchRunsRequest) (*[]domain.Run, error) {

	whereClause, args := buildWhereClause(req)

	query := `
		SELECT ` + ALL_RUN_COLUMNS + `
		FROM runs
		` + whereClause +
		` ORDER BY created DESC
	` + buildLimitsAndOffset(req)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		err := rows.Scan(
			&run.ID,
			&run.WorkflowName,
			&run.Mode,
			&run.Status,
			&run.Created,
			&run.Started,
			&run.Finished,
			&run.ExecutorID,
			&run.TaskCount,
			&run.FailedCount,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return &runs, nil
}

// GetRunOverview returns aggregated counts grouped by workflow name
func (r *RunRepository) GetRunOverview() ([]RunOverviewRow, error) {
	query := `
SELECT
    workflow_name,
    SUM(CASE WHEN status = 'CREATED' THEN 1 ELSE 0 END) AS created_count,
    SUM(CASE WHEN status = 'RUNNING' THEN 1 ELSE 0 END) AS running_count,
    SUM(CASE WHEN status = 'FINISHED' THEN 1 ELSE 0 END) AS finished_count,
    SUM(CASE WHEN status = 'FAILED' THEN 1 ELSE 0 END) AS failed_count
FROM runs
GROUP BY workflow_name;
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RunOverviewRow
	for rows.Next() {
		var row RunOverviewRow
		if err := rows.Scan(&row.WorkflowName, &row.CreatedCount, &row.RunningCount, &row.FinishedCount, &row.FailedCount); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, nil
}

// GetRecentRuns returns the newest runs ordered by created desc
func (r *RunRepository) GetRecentRuns(limit int) (*[]domain.Run, error) {
	query := `
		SELECT ` + ALL_RUN_COLUMNS + `
		FROM runs
		ORDER BY created DESC
		LIMIT ` + placeholder(1) + `
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(
			&run.ID,
			&run.WorkflowName,
			&run.Mode,
			&run.Status,
			&run.Created,
			&run.Started,
			&run.Finished,
			&run.ExecutorID,
			&run.TaskCount,
			&run.FailedCount,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return &runs, nil
}

func buildLimitsAndOffset(req models.SearchRunsRequest) string {
	if req.Limit > 0 {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", req.Limit, req.Offset)
	}
	return ""
}
func buildWhereClause(req models.SearchRunsRequest) (string, []interface{}) {
	var andClauses []string
	var args []interface{}

	if req.WorkflowName != "" {
		args = append(args, req.WorkflowName)
		andClauses = append(andClauses, fmt.Sprintf("workflow_name = %s", placeholder(len(args))))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		andClauses = append(andClauses, fmt.Sprintf("status = %s", placeholder(len(args))))
	}

	if len(andClauses) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(andClauses, " AND "), args
}

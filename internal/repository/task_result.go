package repository

import (
	"database/sql"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
)

// TaskResultRepository provides methods to persist and query per task run records.
type TaskResultRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewTaskResultRepository(db *sql.DB, clock core.Clock) *TaskResultRepository {
	return &TaskResultRepository{db: db, clock: clock}
}

// Save inserts a new task result and returns its ID.
func (r *TaskResultRepository) Save(t *domain.TaskResult) (int64, error) {
	if t.Started.IsZero() {
		t.Started = r.clock.Now().UTC()
	}
	base := `
		INSERT INTO task_results (
			run_id, task_index, type, command, status, exit_code, output, started, finished
		) VALUES (
			` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `, ` + placeholder(6) + `, ` + placeholder(7) + `, ` + placeholder(8) + `, ` + placeholder(9) + `
		)`
	var err error
	if supportsReturning() {
		query := base + " RETURNING id"
		err = r.db.QueryRow(
			query,
			t.RunID,
			t.TaskIndex,
			t.Type,
			t.Command,
			t.Status,
			t.ExitCode,
			t.Output,
			formatDateInDatabase(t.Started),
			formatDateInDatabaseNull(t.Finished),
		).Scan(&t.ID)
	} else {
		res, e := r.db.Exec(base,
			t.RunID,
			t.TaskIndex,
			t.Type,
			t.Command,
			t.Status,
			t.ExitCode,
			t.Output,
			formatDateInDatabase(t.Started),
			formatDateInDatabaseNull(t.Finished),
		)
		if e != nil {
			err = e
		} else {
			id, e2 := res.LastInsertId()
			if e2 != nil {
				err = e2
			} else {
				t.ID = id
			}
		}
	}

	if err != nil {
		slog.Error("Failed to save task result", "error", err)
	}

	return t.ID, err
}

// UpdateOutcome records the terminal status, exit code and output tail
// of a task once its command has finished.
func (r *TaskResultRepository) UpdateOutcome(id int64, status string, exitCode sql.NullInt32, output string) error {
	query := `
		UPDATE task_results
		SET status = ` + placeholder(1) + `, exit_code = ` + placeholder(2) + `, output = ` + placeholder(3) + `, finished = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(4) + `
	`
	_, err := r.db.Exec(query, status, exitCode, output, id)
	return err
}

// UpdateStatus changes the status of a task that is still running, for
// example once its port wait is satisfied.
func (r *TaskResultRepository) UpdateStatus(id int64, status string) error {
	query := `
		UPDATE task_results
		SET status = ` + placeholder(1) + `
		WHERE id = ` + placeholder(2) + `
	`
	_, err := r.db.Exec(query, status, id)
	return err
}

// FindByID fetches a single task result by its ID.
func (r *TaskResultRepository) FindByID(id int64) (*domain.TaskResult, error) {
	query := `
		SELECT id, run_id, task_index, type, command, status, exit_code, output, started, finished
		FROM task_results
		WHERE id = ` + placeholder(1) + `
	`
	var t domain.TaskResult
	err := r.db.QueryRow(query, id).Scan(
		&t.ID,
		&t.RunID,
		&t.TaskIndex,
		&t.Type,
		&t.Command,
		&t.Status,
		&t.ExitCode,
		&t.Output,
		&t.Started,
		&t.Finished,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindAllByRunID returns all task results for a run in task order.
func (r *TaskResultRepository) FindAllByRunID(runID string) (*[]domain.TaskResult, error) {
	query := `
		SELECT id, run_id, task_index, type, command, status, exit_code, output, started, finished
		FROM task_results
		WHERE run_id = ` + placeholder(1) + `
		ORDER BY task_index ASC, id ASC
	`
	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.TaskResult
	for rows.Next() {
		var t domain.TaskResult
		if err := rows.Scan(
			&t.ID,
			&t.RunID,
			&t.TaskIndex,
			&t.Type,
			&t.Command,
			&t.Status,
			&t.ExitCode,
			&t.Output,
			&t.Started,
			&t.Finished,
		); err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return &results, nil
}

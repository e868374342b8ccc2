package engine

import (
	"database/sql"
	"time"

	"github.com/leadflowhq/leadflow/internal/repository"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"
)

// RunRepo defines the interface for run persistence, matching repository.RunRepository.
type RunRepo interface {
	Save(run *domain.Run) error
	FindByID(id string) (*domain.Run, error)
	MarkRunStarted(id string) error
	MarkRunFinished(id string, status string, failedCount int) error
	FindStaleRuns(olderThanMinutes int, limit int) (*[]domain.Run, error)
	SearchRuns(req models.SearchRunsRequest) (*[]domain.Run, error)
	GetRunOverview() ([]repository.RunOverviewRow, error)
	GetRecentRuns(limit int) (*[]domain.Run, error)
}

// TaskResultRepo defines the interface for task result persistence.
type TaskResultRepo interface {
	Save(t *domain.TaskResult) (int64, error)
	UpdateOutcome(id int64, status string, exitCode sql.NullInt32, output string) error
	UpdateStatus(id int64, status string) error
	FindByID(id int64) (*domain.TaskResult, error)
	FindAllByRunID(runID string) (*[]domain.TaskResult, error)
}

// ExecutorRepo defines the interface for executor persistence.
type ExecutorRepo interface {
	Save(e *domain.Executor) (int64, error)
	UpdateLastActive(id int64, ts time.Time) error
	GetExecutorsByLastActive(limit int) ([]*domain.Executor, error)
}

// UserRepo defines the interface for user persistence, matching repository.UserRepository.
type UserRepo interface {
	Save(user *domain.User) (int64, error)
	FindByUsername(username string) (*domain.User, error)
	FindBySessionID(sessionID string, now time.Time) (*domain.User, error)
	UpdateSession(userID int64, sessionID string, expiry time.Time) error
	ClearSessionBySessionID(sessionID string) error
	FindByApiKey(apiKey string) (*domain.User, error)
}

// GoalRepo defines the interface for monthly goal persistence.
type GoalRepo interface {
	Save(g *domain.MonthlyGoal) (int64, error)
	GetCurrent() (*domain.MonthlyGoal, error)
}

// SalesDataRepo defines the interface for officer aggregate persistence.
type SalesDataRepo interface {
	Upsert(sd *domain.SalesData) error
	FindByName(name string) (*domain.SalesData, error)
	FindAll() (*[]domain.SalesData, error)
}

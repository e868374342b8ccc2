package repository

import (
	"database/sql"

	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
)

type MonthlyGoalRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewMonthlyGoalRepository(db *sql.DB, clock core.Clock) *MonthlyGoalRepository {
	return &MonthlyGoalRepository{db: db, clock: clock}
}

// Save inserts a new goal row and returns its generated id. Goals are
// append only, the current one is the latest by updated timestamp.
func (r *MonthlyGoalRepository) Save(g *domain.MonthlyGoal) (int64, error) {
	if g.Updated.IsZero() {
		g.Updated = r.clock.Now().UTC()
	}
	base := `
		INSERT INTO monthly_goals (goal, updated)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `)
	`
	var err error
	if supportsReturning() {
		err = r.db.QueryRow(base+" RETURNING id", g.Goal, formatDateInDatabase(g.Updated)).Scan(&g.ID)
	} else {
		res, e := r.db.Exec(base, g.Goal, formatDateInDatabase(g.Updated))
		if e != nil {
			err = e
		} else {
			id, e2 := res.LastInsertId()
			if e2 != nil {
				err = e2
			} else {
				g.ID = id
			}
		}
	}
	if err != nil {
		return 0, err
	}
	return g.ID, nil
}

// GetCurrent returns the most recent goal row. Returns (nil, nil) when
// no goal has ever been set.
func (r *MonthlyGoalRepository) GetCurrent() (*domain.MonthlyGoal, error) {
	query := `
		SELECT id, goal, updated
		FROM monthly_goals
		ORDER BY updated DESC, id DESC
		LIMIT 1
	`
	var g domain.MonthlyGoal
	err := r.db.QueryRow(query).Scan(&g.ID, &g.Goal, &g.Updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

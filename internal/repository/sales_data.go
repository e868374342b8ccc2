package repository

import (
	"database/sql"

	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
)

type SalesDataRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewSalesDataRepository(db *sql.DB, clock core.Clock) *SalesDataRepository {
	return &SalesDataRepository{db: db, clock: clock}
}

// Upsert inserts an officer's aggregate row or updates the existing one
// by name. Returns nil on success or an error.
func (r *SalesDataRepository) Upsert(sd *domain.SalesData) error {
	if sd.Updated.IsZero() {
		sd.Updated = r.clock.Now().UTC()
	}
	query := ""
	db := config.GetSystemSettingString(config.DATABASE_TYPE)
	if db == config.DATABASE_TYPE_POSTGRES || db == config.DATABASE_TYPE_SQLLITE {
		query = `
		INSERT INTO sales_data (name, value, demos, updated)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)
		ON CONFLICT (name)
		DO UPDATE SET value = EXCLUDED.value,
			demos = EXCLUDED.demos,
			updated = EXCLUDED.updated
	`
	} else if db == config.DATABASE_TYPE_MYSQL {
		query = `
		INSERT INTO sales_data (name, value, demos, updated)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)
		ON DUPLICATE KEY UPDATE value = VALUES(value),
			demos = VALUES(demos),
			updated = VALUES(updated)
	`
	} else {
		panic("Unknown database type trying to save sales data")
	}

	_, err := r.db.Exec(query, sd.Name, sd.Value, sd.Demos, formatDateInDatabase(sd.Updated))
	return err
}

// FindByName fetches an officer's row by its unique name. Returns (nil, nil) if not found.
func (r *SalesDataRepository) FindByName(name string) (*domain.SalesData, error) {
	query := `
		SELECT id, name, value, demos, updated
		FROM sales_data WHERE name = ` + placeholder(1) + `
	`
	var sd domain.SalesData
	err := r.db.QueryRow(query, name).Scan(
		&sd.ID,
		&sd.Name,
		&sd.Value,
		&sd.Demos,
		&sd.Updated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sd, nil
}

// FindAll returns all officer rows ordered by value descending.
func (r *SalesDataRepository) FindAll() (*[]domain.SalesData, error) {
	query := `
		SELECT id, name, value, demos, updated
		FROM sales_data
		ORDER BY value DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := make([]domain.SalesData, 0)
	for rows.Next() {
		var sd domain.SalesData
		if err := rows.Scan(&sd.ID, &sd.Name, &sd.Value, &sd.Demos, &sd.Updated); err != nil {
			return nil, err
		}
		data = append(data, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &data, nil
}

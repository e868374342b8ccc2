package domain

import "time"

type MonthlyGoal struct {
	ID      int64     // BIGSERIAL
	Goal    int       // INT, target enrollments for the month
	Updated time.Time // TIMESTAMP
}

package domain

import "time"

type SalesData struct {
	ID      int64     // BIGSERIAL
	Name    string    // TEXT, unique officer name
	Value   float64   // DOUBLE PRECISION
	Demos   int       // INT
	Updated time.Time // TIMESTAMP
}

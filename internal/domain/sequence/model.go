package sequence

import "time"

// Counter stores the last issued sequence for a (department code, year)
// pair. CurrentNumber only ever increases; the repository enforces this
// with an atomic upsert at the store, never an in-process lock.
type Counter struct {
	DepartmentCode string    `db:"department_code" json:"department_code"`
	Year           int       `db:"year" json:"year"`
	CurrentNumber  int       `db:"current_number" json:"current_number"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

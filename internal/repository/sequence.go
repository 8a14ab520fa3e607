package repository

import (
	"context"
	"database/sql"

	"github.com/projectline/projectline/internal/domain/sequence"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/postgres"
)

type sequenceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewSequenceRepository creates a postgres-backed sequence repository
func NewSequenceRepository(db *postgres.DB, logger *logger.Logger) sequence.Repository {
	return &sequenceRepository{db: db, logger: logger}
}

// allocateNextQuery is a single atomic read-modify-write. The upsert
// creates the counter at 1 on first allocation and increments it under
// the row lock otherwise, so concurrent callers across process instances
// always see pairwise distinct, contiguous values.
const allocateNextQuery = `
INSERT INTO project_sequence_counters (department_code, year, current_number, created_at, updated_at)
VALUES ($1, $2, 1, NOW(), NOW())
ON CONFLICT (department_code, year)
DO UPDATE SET current_number = project_sequence_counters.current_number + 1, updated_at = NOW()
RETURNING current_number`

func (r *sequenceRepository) AllocateNext(ctx context.Context, departmentCode string, year int) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx, allocateNextQuery, departmentCode, year).Scan(&next)
	if err != nil {
		r.logger.Errorw("failed to allocate next sequence",
			"department_code", departmentCode,
			"year", year,
			"error", err)
		return 0, ierr.WithError(err).
			WithHint("Project number storage is unavailable").
			WithReportableDetails(map[string]any{
				"department_code": departmentCode,
				"year":            year,
			}).
			Mark(ierr.ErrDatabase)
	}

	return next, nil
}

func (r *sequenceRepository) Get(ctx context.Context, departmentCode string, year int) (*sequence.Counter, error) {
	var counter sequence.Counter
	err := r.db.GetContext(ctx, &counter,
		`SELECT department_code, year, current_number, created_at, updated_at
		 FROM project_sequence_counters
		 WHERE department_code = $1 AND year = $2`,
		departmentCode, year)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("sequence counter not found").
				WithHintf("No sequence has been allocated yet for %s%02d", departmentCode, year).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read sequence counter").
			Mark(ierr.ErrDatabase)
	}

	return &counter, nil
}

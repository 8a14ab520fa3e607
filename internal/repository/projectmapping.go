package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/projectline/projectline/internal/domain/projectmapping"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/postgres"
	"github.com/projectline/projectline/internal/types"
)

type projectMappingRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewProjectMappingRepository creates a postgres-backed mapping repository
func NewProjectMappingRepository(db *postgres.DB, logger *logger.Logger) projectmapping.Repository {
	return &projectMappingRepository{db: db, logger: logger}
}

// mappingRow mirrors the table layout; deal_ids is a text[] column
type mappingRow struct {
	ID             string         `db:"id"`
	ProjectNumber  string         `db:"project_number"`
	DealIDs        pq.StringArray `db:"deal_ids"`
	DepartmentCode string         `db:"department_code"`
	Year           int            `db:"year"`
	Sequence       int            `db:"sequence"`
	TenantID       string         `db:"tenant_id"`
	Status         string         `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	CreatedBy      string         `db:"created_by"`
	UpdatedBy      string         `db:"updated_by"`
}

func (r mappingRow) toDomain() *projectmapping.ProjectMapping {
	return &projectmapping.ProjectMapping{
		ID:             r.ID,
		ProjectNumber:  r.ProjectNumber,
		DealIDs:        []string(r.DealIDs),
		DepartmentCode: r.DepartmentCode,
		Year:           r.Year,
		Sequence:       r.Sequence,
		BaseModel: types.BaseModel{
			TenantID:  r.TenantID,
			Status:    types.Status(r.Status),
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
			CreatedBy: r.CreatedBy,
			UpdatedBy: r.UpdatedBy,
		},
	}
}

const mappingColumns = `id, project_number, deal_ids, department_code, year, sequence,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *projectMappingRepository) Create(ctx context.Context, mapping *projectmapping.ProjectMapping) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_mappings (`+mappingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		mapping.ID,
		mapping.ProjectNumber,
		pq.Array(mapping.DealIDs),
		mapping.DepartmentCode,
		mapping.Year,
		mapping.Sequence,
		mapping.TenantID,
		mapping.Status,
		mapping.CreatedAt,
		mapping.UpdatedAt,
		mapping.CreatedBy,
		mapping.UpdatedBy,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return ierr.WithError(err).
				WithHintf("Project number %s is already mapped", mapping.ProjectNumber).
				Mark(ierr.ErrAlreadyExists)
		}
		r.logger.Errorw("failed to create project mapping",
			"project_number", mapping.ProjectNumber,
			"error", err)
		return ierr.WithError(err).
			WithHint("Failed to persist project mapping").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *projectMappingRepository) GetByProjectNumber(ctx context.Context, projectNumber string) (*projectmapping.ProjectMapping, error) {
	var row mappingRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+mappingColumns+` FROM project_mappings
		 WHERE project_number = $1 AND status = $2`,
		projectNumber, types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("project mapping not found").
				WithHintf("No mapping exists for project number %s", projectNumber).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read project mapping").
			Mark(ierr.ErrDatabase)
	}

	return row.toDomain(), nil
}

func (r *projectMappingRepository) GetByDealID(ctx context.Context, dealID string) (*projectmapping.ProjectMapping, error) {
	var row mappingRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+mappingColumns+` FROM project_mappings
		 WHERE $1 = ANY(deal_ids) AND status = $2`,
		dealID, types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("project mapping not found").
				WithHintf("Deal %s is not linked to any project number", dealID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read project mapping").
			Mark(ierr.ErrDatabase)
	}

	return row.toDomain(), nil
}

func (r *projectMappingRepository) AppendDealID(ctx context.Context, projectNumber string, dealID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE project_mappings
		 SET deal_ids = array_append(deal_ids, $2), updated_at = NOW(), updated_by = $3
		 WHERE project_number = $1 AND NOT ($2 = ANY(deal_ids))`,
		projectNumber, dealID, types.GetUserID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to link deal to project mapping").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to link deal to project mapping").
			Mark(ierr.ErrDatabase)
	}

	if affected == 0 {
		// Either the mapping is missing or the deal is already linked;
		// only the former is an error
		if _, err := r.GetByProjectNumber(ctx, projectNumber); err != nil {
			return err
		}
	}

	return nil
}

func (r *projectMappingRepository) ListProjectNumbers(ctx context.Context, departmentCode string, year int) ([]string, error) {
	var numbers []string
	err := r.db.SelectContext(ctx, &numbers,
		`SELECT project_number FROM project_mappings
		 WHERE department_code = $1 AND year = $2 AND status = $3
		 ORDER BY sequence`,
		departmentCode, year, types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list project numbers").
			Mark(ierr.ErrDatabase)
	}

	return numbers, nil
}

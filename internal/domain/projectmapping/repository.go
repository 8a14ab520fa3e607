package projectmapping

import "context"

// Repository defines the interface for deal-project mapping data access
type Repository interface {
	Create(ctx context.Context, mapping *ProjectMapping) error
	GetByProjectNumber(ctx context.Context, projectNumber string) (*ProjectMapping, error)
	GetByDealID(ctx context.Context, dealID string) (*ProjectMapping, error)
	// AppendDealID links an additional deal to an existing mapping.
	// Appending an already linked deal id is a no-op.
	AppendDealID(ctx context.Context, projectNumber string, dealID string) error
	// ListProjectNumbers returns every mapped number for a department and
	// year, used for duplicate checks when linking
	ListProjectNumbers(ctx context.Context, departmentCode string, year int) ([]string, error)
}

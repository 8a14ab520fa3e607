package projectmapping

import (
	"github.com/projectline/projectline/internal/types"
	"github.com/samber/lo"
)

// ProjectMapping associates one or more CRM deal ids with a single
// project number. ProjectNumber never changes once created; linking an
// additional deal appends to DealIDs only.
type ProjectMapping struct {
	ID             string   `db:"id" json:"id"`
	ProjectNumber  string   `db:"project_number" json:"project_number"`
	DealIDs        []string `db:"deal_ids" json:"deal_ids"`
	DepartmentCode string   `db:"department_code" json:"department_code"`
	Year           int      `db:"year" json:"year"`
	Sequence       int      `db:"sequence" json:"sequence"`

	types.BaseModel
}

// HasDeal reports whether dealID is already linked to this mapping
func (m *ProjectMapping) HasDeal(dealID string) bool {
	return lo.Contains(m.DealIDs, dealID)
}

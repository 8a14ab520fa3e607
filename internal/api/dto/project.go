package dto

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/integration/pipedrive"
)

// CreateFullProjectRequest is the body of POST /v1/projects/create-full.
// PipedriveDealID may arrive as a JSON number or a numeric string.
type CreateFullProjectRequest struct {
	PipedriveDealID             any    `json:"pipedrive_deal_id"`
	PipedriveCompanyID          string `json:"pipedrive_company_id"`
	ExistingProjectNumberToLink string `json:"existing_project_number_to_link,omitempty"`
}

// Validate checks required identifiers and returns the parsed deal id
func (r *CreateFullProjectRequest) Validate() (int, error) {
	if r.PipedriveDealID == nil {
		return 0, ierr.NewError("missing required field").
			WithHint("pipedrive_deal_id is required").
			WithReportableDetails(map[string]any{
				"missing_field": "pipedrive_deal_id",
			}).
			Mark(ierr.ErrValidation)
	}

	if strings.TrimSpace(r.PipedriveCompanyID) == "" {
		return 0, ierr.NewError("missing required field").
			WithHint("pipedrive_company_id is required").
			WithReportableDetails(map[string]any{
				"missing_field": "pipedrive_company_id",
			}).
			Mark(ierr.ErrValidation)
	}

	dealID, err := parseDealID(r.PipedriveDealID)
	if err != nil {
		return 0, err
	}

	return dealID, nil
}

func parseDealID(v any) (int, error) {
	switch id := v.(type) {
	case int:
		return id, nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return 0, invalidDealID(id)
		}
		return parsed, nil
	case json.Number:
		parsed, err := strconv.Atoi(id.String())
		if err != nil {
			return 0, invalidDealID(id)
		}
		return parsed, nil
	case float64:
		// gin's default JSON binding decodes numbers as float64
		if id != math.Trunc(id) {
			return 0, invalidDealID(id)
		}
		return int(id), nil
	default:
		return 0, invalidDealID(v)
	}
}

func invalidDealID(v any) error {
	return ierr.NewError("invalid deal id").
		WithHintf("pipedrive_deal_id must be an integer, got %v", v).
		WithReportableDetails(map[string]any{
			"pipedrive_deal_id": v,
		}).
		Mark(ierr.ErrValidation)
}

// AccountingResult reports the best-effort accounting stage. It is a
// response field, never an error: accounting failure does not fail the
// request once the CRM side has succeeded.
type AccountingResult struct {
	ProjectCreated bool     `json:"project_created"`
	ProjectID      string   `json:"project_id,omitempty"`
	ContactID      string   `json:"contact_id,omitempty"`
	TaskIDs        []string `json:"task_ids,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// ProjectMetadata echoes the request identifiers and the resolution branch
type ProjectMetadata struct {
	DealID       int    `json:"deal_id"`
	CompanyID    string `json:"company_id"`
	IsNewProject bool   `json:"is_new_project"`
}

// CreateFullProjectResponse is the 201 body of the create-full workflow
type CreateFullProjectResponse struct {
	Success       bool                    `json:"success"`
	ProjectNumber string                  `json:"project_number"`
	Deal          *pipedrive.Deal         `json:"deal"`
	Person        *pipedrive.Person       `json:"person,omitempty"`
	Organization  *pipedrive.Organization `json:"organization,omitempty"`
	Products      []pipedrive.Product     `json:"products"`
	Accounting    AccountingResult        `json:"accounting"`
	Metadata      ProjectMetadata         `json:"metadata"`
}

// CounterResponse exposes a sequence counter's current state
type CounterResponse struct {
	DepartmentCode string `json:"department_code"`
	Year           int    `json:"year"`
	CurrentNumber  int    `json:"current_number"`
}

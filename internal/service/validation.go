package service

import (
	"time"

	"github.com/projectline/projectline/internal/domain/projectnumber"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/integration/pipedrive"
	"github.com/samber/lo"
)

// Business rule guards. Each returns nil or a validation error whose
// hint names the specific unmet rule. They run before any allocation or
// external call, so a rejected request never burns a sequence number.

// ValidateProjectCreation checks that a deal is eligible for a new
// project number
func ValidateProjectCreation(deal *pipedrive.Deal) error {
	if deal == nil {
		return dealRequired()
	}

	if deal.ProjectNumber != "" {
		return ierr.NewError("deal already linked").
			WithHintf("Deal is already linked to project number %s", deal.ProjectNumber).
			WithReportableDetails(map[string]any{
				"project_number": deal.ProjectNumber,
			}).
			Mark(ierr.ErrValidation)
	}

	if deal.DepartmentCode == "" {
		return ierr.NewError("missing department").
			WithHint("Deal has no department classification").
			Mark(ierr.ErrValidation)
	}

	if deal.Vessel == "" {
		return ierr.NewError("missing vessel").
			WithHint("Deal has no vessel classification").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// ValidateDealForProject checks that a deal carries everything a
// project record needs
func ValidateDealForProject(deal *pipedrive.Deal) error {
	if deal == nil {
		return dealRequired()
	}

	if deal.Value.IsZero() {
		return ierr.NewError("deal value required").
			WithHint("Deal has no value").
			Mark(ierr.ErrValidation)
	}

	if deal.Value.IsNegative() {
		return ierr.NewError("deal value not positive").
			WithHintf("Deal value must be positive, got %s", deal.Value).
			Mark(ierr.ErrValidation)
	}

	if deal.ExpectedCloseDate != "" && !parseableDate(deal.ExpectedCloseDate) {
		return ierr.NewError("invalid close date").
			WithHintf("expected_close_date %q is not an ISO-8601 date", deal.ExpectedCloseDate).
			WithReportableDetails(map[string]any{
				"expected_close_date": deal.ExpectedCloseDate,
			}).
			Mark(ierr.ErrValidation)
	}

	if deal.Organization == nil {
		return ierr.NewError("organization required").
			WithHint("Deal has no organization association").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// ValidateProjectNumberAssignment checks a project number before it is
// written to a deal. existingNumbers guards against duplicates; when
// deal is non-nil the number's department component must match the
// deal's department.
func ValidateProjectNumberAssignment(number string, existingNumbers []string, deal *pipedrive.Deal) error {
	if number == "" {
		return ierr.NewError("project number required").
			WithHint("Project number is required").
			Mark(ierr.ErrValidation)
	}

	parsed := projectnumber.Parse(number)
	if parsed == nil {
		return ierr.NewError("invalid project number format").
			WithHintf("Project number %q must be 2 uppercase letters, 2 year digits and 3 sequence digits", number).
			WithReportableDetails(map[string]any{
				"project_number": number,
			}).
			Mark(ierr.ErrValidation)
	}

	if lo.Contains(existingNumbers, number) {
		return ierr.NewError("duplicate project number").
			WithHintf("Project number %s is already assigned", number).
			WithReportableDetails(map[string]any{
				"project_number": number,
			}).
			Mark(ierr.ErrValidation)
	}

	if deal != nil {
		if deal.DepartmentCode == "" {
			return ierr.NewError("deal department required").
				WithHint("Deal has no department classification to match the project number against").
				Mark(ierr.ErrValidation)
		}

		if parsed.DepartmentCode != deal.DepartmentCode {
			return ierr.NewError("department mismatch").
				WithHintf("Project number department %s does not match deal department %s",
					parsed.DepartmentCode, deal.DepartmentCode).
				WithReportableDetails(map[string]any{
					"project_number_department": parsed.DepartmentCode,
					"deal_department":           deal.DepartmentCode,
				}).
				Mark(ierr.ErrValidation)
		}
	}

	return nil
}

func dealRequired() error {
	return ierr.NewError("deal required").
		WithHint("A deal is required").
		Mark(ierr.ErrValidation)
}

func parseableDate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	return false
}

package service

import (
	"testing"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/integration/pipedrive"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ValidationSuite struct {
	suite.Suite
}

func TestValidation(t *testing.T) {
	suite.Run(t, new(ValidationSuite))
}

func (s *ValidationSuite) validDeal() *pipedrive.Deal {
	return &pipedrive.Deal{
		ID:                42,
		Title:             "Hull repair",
		Value:             decimal.NewFromInt(15000),
		Currency:          "EUR",
		Organization:      &pipedrive.EntityRef{ID: 7, Name: "Nordic Marine"},
		ExpectedCloseDate: "2025-09-30",
		DepartmentCode:    "NY",
		Vessel:            "MS Aurora",
	}
}

func (s *ValidationSuite) TestValidateProjectCreation() {
	testCases := []struct {
		name          string
		mutate        func(d *pipedrive.Deal) *pipedrive.Deal
		expectedError bool
	}{
		{
			name:   "valid_deal",
			mutate: func(d *pipedrive.Deal) *pipedrive.Deal { return d },
		},
		{
			name:          "nil_deal",
			mutate:        func(d *pipedrive.Deal) *pipedrive.Deal { return nil },
			expectedError: true,
		},
		{
			name: "already_linked",
			mutate: func(d *pipedrive.Deal) *pipedrive.Deal {
				d.ProjectNumber = "NY25001"
				return d
			},
			expectedError: true,
		},
		{
			name: "missing_department",
			mutate: func(d *pipedrive.Deal) *pipedrive.Deal {
				d.DepartmentCode = ""
				return d
			},
			expectedError: true,
		},
		{
			name: "missing_vessel",
			mutate: func(d *pipedrive.Deal) *pipedrive.Deal {
				d.Vessel = ""
				return d
			},
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := ValidateProjectCreation(tc.mutate(s.validDeal()))
			if tc.expectedError {
				s.Error(err)
				s.True(ierr.IsValidation(err))
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *ValidationSuite) TestValidateDealForProject() {
	testCases := []struct {
		name          string
		mutate        func(d *pipedrive.Deal) *pipedrive.Deal
		expectedError bool
	}{
		{
			name:   "valid_deal",
			mutate: func(d *pipedrive.Deal) *pipedrive.Deal { return d },
		},
		{
			name:   "close_date_rfc3339",
			mutate: func(d *pipedrive.Deal) *pipedrive.Deal { d.ExpectedCloseDate = "2025-09-30T12:00:00Z"; return d },
		},
		{
			name:   "close_date_empty",
			mutate: func(d *pipedrive.Deal) *pipedrive.Deal { d.ExpectedCloseDate = ""; return d },
		},
		{
			name:          "nil_deal",
			mutate:        func(d *pipedrive.Deal) *pipedrive.Deal { return nil },
			expectedError: true,
		},
		{
			name:          "zero_value",
			mutate:        func(d *pipedrive.Deal) *pipedrive.Deal { d.Value = decimal.Zero; return d },
			expectedError: true,
		},
		{
			name:          "negative_value",
			mutate:        func(d *pipedrive.Deal) *pipedrive.Deal { d.Value = decimal.NewFromInt(-1); return d },
			expectedError: true,
		},
		{
			name:          "malformed_close_date",
			mutate:        func(d *pipedrive.Deal) *pipedrive.Deal { d.ExpectedCloseDate = "30/09/2025"; return d },
			expectedError: true,
		},
		{
			name:          "missing_organization",
			mutate:        func(d *pipedrive.Deal) *pipedrive.Deal { d.Organization = nil; return d },
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := ValidateDealForProject(tc.mutate(s.validDeal()))
			if tc.expectedError {
				s.Error(err)
				s.True(ierr.IsValidation(err))
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *ValidationSuite) TestValidateProjectNumberAssignment() {
	deal := s.validDeal()

	testCases := []struct {
		name          string
		number        string
		existing      []string
		deal          *pipedrive.Deal
		expectedError bool
	}{
		{
			name:   "valid_assignment",
			number: "NY25001",
			deal:   deal,
		},
		{
			name:   "valid_without_deal",
			number: "NY25001",
		},
		{
			name:          "empty_number",
			number:        "",
			deal:          deal,
			expectedError: true,
		},
		{
			name:          "malformed_number",
			number:        "NY2501",
			deal:          deal,
			expectedError: true,
		},
		{
			name:          "duplicate_number",
			number:        "NY25001",
			existing:      []string{"NY25001", "NY25002"},
			deal:          deal,
			expectedError: true,
		},
		{
			name:     "other_numbers_exist",
			number:   "NY25003",
			existing: []string{"NY25001", "NY25002"},
			deal:     deal,
		},
		{
			name:          "department_mismatch",
			number:        "AB25001",
			deal:          deal,
			expectedError: true,
		},
		{
			name:   "deal_without_department",
			number: "NY25001",
			deal: func() *pipedrive.Deal {
				d := s.validDeal()
				d.DepartmentCode = ""
				return d
			}(),
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := ValidateProjectNumberAssignment(tc.number, tc.existing, tc.deal)
			if tc.expectedError {
				s.Error(err)
				s.True(ierr.IsValidation(err))
			} else {
				s.NoError(err)
			}
		})
	}
}

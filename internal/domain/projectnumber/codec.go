// Package projectnumber implements the project number format:
// a 2-letter department code, a 2-digit year and a zero-padded
// 3-digit sequence, e.g. NY25001.
package projectnumber

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	ierr "github.com/projectline/projectline/internal/errors"
)

const (
	// Length is the fixed length of a well-formed project number
	Length = 7
	// MaxSequence is the largest sequence the 3-digit field can carry.
	// Allocations past this fail rather than silently lengthening the number.
	MaxSequence = 999
)

var (
	numberPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[0-9]{3}$`)
	deptPattern   = regexp.MustCompile(`^[A-Z]{2}$`)
)

// Parsed holds the decomposed components of a valid project number
type Parsed struct {
	DepartmentCode string `json:"department_code"`
	Year           int    `json:"year"`
	Sequence       int    `json:"sequence"`
}

// Validate reports whether candidate is a well-formed project number.
// Any year 00-99 is accepted so historical numbers stay valid.
func Validate(candidate string) bool {
	return numberPattern.MatchString(candidate)
}

// ValidateDepartmentCode reports whether code is exactly 2 uppercase
// ASCII letters
func ValidateDepartmentCode(code string) bool {
	return deptPattern.MatchString(code)
}

// Generate builds a project number for the current UTC year. The sequence
// is supplied by the caller, normally from the sequence allocator.
func Generate(departmentCode string, sequence int) (string, error) {
	return GenerateAt(departmentCode, sequence, time.Now().UTC())
}

// GenerateAt is Generate with an injectable clock
func GenerateAt(departmentCode string, sequence int, now time.Time) (string, error) {
	if !ValidateDepartmentCode(departmentCode) {
		return "", ierr.NewError("invalid department code").
			WithHintf("Department code must be exactly 2 uppercase letters, got %q", departmentCode).
			WithReportableDetails(map[string]any{
				"department_code": departmentCode,
			}).
			Mark(ierr.ErrValidation)
	}

	if sequence < 0 || sequence > MaxSequence {
		return "", ierr.NewError("sequence out of range").
			WithHintf("Sequence must be between 0 and %d, got %d", MaxSequence, sequence).
			WithReportableDetails(map[string]any{
				"department_code": departmentCode,
				"sequence":        sequence,
			}).
			Mark(ierr.ErrSequenceExhausted)
	}

	return fmt.Sprintf("%s%02d%03d", departmentCode, now.Year()%100, sequence), nil
}

// Parse decomposes a project number into its components. It returns nil
// for anything that fails Validate and never returns an error, so it is
// safe to use in filter pipelines over untrusted input.
func Parse(candidate string) *Parsed {
	if !Validate(candidate) {
		return nil
	}

	// Validate guarantees the digit groups parse
	year, _ := strconv.Atoi(candidate[2:4])
	sequence, _ := strconv.Atoi(candidate[4:7])

	return &Parsed{
		DepartmentCode: candidate[:2],
		Year:           year,
		Sequence:       sequence,
	}
}

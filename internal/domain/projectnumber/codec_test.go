package projectnumber

import (
	"testing"
	"time"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		candidate string
		valid     bool
	}{
		{"valid_number", "NY25001", true},
		{"valid_zero_sequence", "AB00000", true},
		{"valid_max_sequence", "ZZ99999", true},
		{"empty", "", false},
		{"too_short", "NY2500", false},
		{"too_long", "NY250011", false},
		{"lowercase_department", "ny25001", false},
		{"digit_in_department", "N125001", false},
		{"letter_in_sequence", "NY25A01", false},
		{"three_letter_department", "NYC2501", false},
		{"whitespace", " NY25001", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, Validate(tc.candidate))
		})
	}
}

func TestValidateDepartmentCode(t *testing.T) {
	assert.True(t, ValidateDepartmentCode("NY"))
	assert.True(t, ValidateDepartmentCode("AB"))
	assert.False(t, ValidateDepartmentCode(""))
	assert.False(t, ValidateDepartmentCode("N"))
	assert.False(t, ValidateDepartmentCode("NYC"))
	assert.False(t, ValidateDepartmentCode("ny"))
	assert.False(t, ValidateDepartmentCode("N1"))
}

func TestGenerateAt(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name           string
		departmentCode string
		sequence       int
		expected       string
		expectedErr    error
	}{
		{"first_number", "NY", 1, "NY25001", nil},
		{"zero_padded", "AB", 42, "AB25042", nil},
		{"max_sequence", "NY", 999, "NY25999", nil},
		{"sequence_exhausted", "NY", 1000, "", ierr.ErrSequenceExhausted},
		{"negative_sequence", "NY", -1, "", ierr.ErrSequenceExhausted},
		{"invalid_department", "N1", 1, "", ierr.ErrValidation},
		{"lowercase_department", "ny", 1, "", ierr.ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			number, err := GenerateAt(tc.departmentCode, tc.sequence, now)
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, number)
			assert.Len(t, number, Length)
		})
	}
}

func TestGenerateAtCenturyWrap(t *testing.T) {
	number, err := GenerateAt("NY", 1, time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "NY00001", number)
}

func TestParse(t *testing.T) {
	parsed := Parse("NY25001")
	require.NotNil(t, parsed)
	assert.Equal(t, "NY", parsed.DepartmentCode)
	assert.Equal(t, 25, parsed.Year)
	assert.Equal(t, 1, parsed.Sequence)

	parsed = Parse("AB09123")
	require.NotNil(t, parsed)
	assert.Equal(t, "AB", parsed.DepartmentCode)
	assert.Equal(t, 9, parsed.Year)
	assert.Equal(t, 123, parsed.Sequence)

	// malformed input yields nil, never an error
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("invalid"))
	assert.Nil(t, Parse("ny25001"))
	assert.Nil(t, Parse("NY250011"))
}

// Generating from parsed components must reproduce the original number
// for every valid input.
func TestGenerateParseRoundTrip(t *testing.T) {
	numbers := []string{"NY25001", "AB00000", "ZZ99999", "CD07042"}
	for _, number := range numbers {
		parsed := Parse(number)
		require.NotNil(t, parsed, number)

		at := time.Date(2000+parsed.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		regenerated, err := GenerateAt(parsed.DepartmentCode, parsed.Sequence, at)
		require.NoError(t, err)
		assert.Equal(t, number, regenerated)
	}
}

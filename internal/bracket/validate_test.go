package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "incomefit/internal/errors"
)

func validTable() []Bracket {
	return []Bracket{
		{Period: 1994, Lower: 0, Upper: 10000, HasUpper: true, Count: 100},
		{Period: 1994, Lower: 10000, Upper: 20000, HasUpper: true, Count: 50},
		{Period: 1994, Lower: 20000, Count: 10},
		{Period: 1995, Lower: 0, Upper: 15000, HasUpper: true, Count: 80},
		{Period: 1995, Lower: 15000, Count: 5},
	}
}

func TestValidate_AcceptsContractTable(t *testing.T) {
	require.NoError(t, Validate(validTable()))
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]Bracket) []Bracket
	}{
		{
			name: "negative lower bound",
			mutate: func(b []Bracket) []Bracket {
				b[0].Lower = -1
				return b
			},
		},
		{
			name: "upper equal to lower",
			mutate: func(b []Bracket) []Bracket {
				b[1].Upper = b[1].Lower
				return b
			},
		},
		{
			name: "upper below lower",
			mutate: func(b []Bracket) []Bracket {
				b[1].Upper = b[1].Lower - 500
				return b
			},
		},
		{
			name: "negative count",
			mutate: func(b []Bracket) []Bracket {
				b[2].Count = -3
				return b
			},
		},
		{
			name: "no open-ended bracket in a period",
			mutate: func(b []Bracket) []Bracket {
				b[4].Upper = 30000
				b[4].HasUpper = true
				return b
			},
		},
		{
			name: "two open-ended brackets in a period",
			mutate: func(b []Bracket) []Bracket {
				return append(b, Bracket{Period: 1994, Lower: 50000, Count: 1})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mutate(validTable()))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDegenerateBracket),
				"want DegenerateBracket, got %v", err)
		})
	}
}

func TestValidate_EmptyTable(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestPeriods(t *testing.T) {
	brackets := []RealBracket{
		{Period: 2001}, {Period: 1994}, {Period: 2001}, {Period: 1997},
	}
	assert.Equal(t, []int{1994, 1997, 2001}, Periods(brackets))
}

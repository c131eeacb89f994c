package bracket

import (
	"fmt"

	apperrors "incomefit/internal/errors"
)

// Validate enforces the upstream parser contract on a source bracket table:
// lower >= 0, upper > lower when present, and exactly one open-ended bracket
// per period. Violations are fatal because they would silently corrupt every
// downstream period.
func Validate(brackets []Bracket) error {
	if len(brackets) == 0 {
		return apperrors.NewParsingError("source bracket table is empty", nil)
	}

	tails := make(map[int]int)
	for _, b := range brackets {
		if b.Lower < 0 {
			return apperrors.NewDegenerateBracketError(
				fmt.Sprintf("negative lower bound %.2f", b.Lower), b.Period)
		}
		if b.HasUpper && b.Upper <= b.Lower {
			return apperrors.NewDegenerateBracketError(
				fmt.Sprintf("upper bound %.2f does not exceed lower bound %.2f", b.Upper, b.Lower), b.Period)
		}
		if b.Count < 0 {
			return apperrors.NewDegenerateBracketError(
				fmt.Sprintf("negative count %.2f", b.Count), b.Period)
		}
		if !b.HasUpper {
			tails[b.Period]++
		} else {
			// Ensure the period is tracked even if its tail row is missing.
			tails[b.Period] += 0
		}
	}

	for period, n := range tails {
		if n != 1 {
			return apperrors.NewDegenerateBracketError(
				fmt.Sprintf("expected exactly one open-ended bracket, found %d", n), period)
		}
	}

	return nil
}

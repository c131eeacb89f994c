package remap

import (
	"fmt"

	apperrors "incomefit/internal/errors"
)

// Quantile estimates the q-th quantile of a period's distribution by linear
// interpolation over finite grid cells. The tail never participates: its
// width is unknown, so interpolating into it would fabricate a bound the
// data does not have.
func Quantile(g PeriodGrid, q float64) (float64, error) {
	if q <= 0 || q >= 1 {
		return 0, apperrors.NewAppError(apperrors.ErrTypeConfig,
			fmt.Sprintf("quantile %.4f must be inside (0, 1)", q), nil)
	}

	if g.FiniteMass() <= 0 {
		return 0, apperrors.NewInsufficientDataError(
			fmt.Sprintf("period %d has no finite mass for quantile estimation", g.Period), 0)
	}

	// The threshold counts tail mass, but interpolation only ever happens
	// inside finite cells.
	threshold := q * g.TotalMass()

	var cumulative float64
	for _, cell := range g.Cells {
		if cumulative+cell.Count >= threshold {
			fraction := (threshold - cumulative) / cell.Count
			return cell.Lower + fraction*(cell.Upper-cell.Lower), nil
		}
		cumulative += cell.Count
	}

	return 0, apperrors.NewInsufficientDataError(
		fmt.Sprintf("period %d: quantile %.4f falls inside the open-ended tail", g.Period, q), len(g.Cells))
}

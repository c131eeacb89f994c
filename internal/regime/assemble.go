package regime

import (
	apperrors "incomefit/internal/errors"
)

// AssembleTimeSeries left-joins the scan result with both segment fits on
// the period key. Failed fits become nil fields in the joined row, never a
// dropped row, so an unfittable period stays visible in the output.
func AssembleTimeSeries(splits []RegimeSplit, exps []ExponentialFit, pows []PowerLawFit) ([]TimeSeriesRow, error) {
	if len(splits) == 0 {
		return nil, apperrors.NewInsufficientDataError("no periods to assemble", 0)
	}

	expByPeriod := make(map[int]ExponentialFit, len(exps))
	for _, f := range exps {
		expByPeriod[f.Period] = f
	}
	powByPeriod := make(map[int]PowerLawFit, len(pows))
	for _, f := range pows {
		powByPeriod[f.Period] = f
	}

	rows := make([]TimeSeriesRow, 0, len(splits))
	for _, split := range splits {
		row := TimeSeriesRow{
			Period:    split.Period,
			Threshold: split.Threshold,
			Score:     split.Score,
		}

		if exp, ok := expByPeriod[split.Period]; ok {
			row.ExpN = exp.N
			if exp.Valid {
				row.Scale = ptr(exp.Scale)
				row.ExpR2 = ptr(exp.R2)
			}
		}

		if pow, ok := powByPeriod[split.Period]; ok {
			row.PowerN = pow.N
			row.TailFraction = pow.TailFraction
			if pow.Valid {
				row.TailExponent = ptr(pow.Exponent)
				row.TailExponentSE = ptr(pow.ExponentSE)
				row.PowerR2 = ptr(pow.R2)
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func ptr(v float64) *float64 {
	return &v
}

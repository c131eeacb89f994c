package regime

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"incomefit/internal/config"
	apperrors "incomefit/internal/errors"
	"incomefit/internal/remap"
)

// FitExponentialBody fits the sub-threshold segment: ln(density) regressed
// on midpoint, scale parameter = −1/slope. A non-decaying slope or too few
// points yields a missing result, never a spurious parameter.
func FitExponentialBody(ctx context.Context, logger *slog.Logger, g remap.PeriodGrid, threshold float64, minPoints int) ExponentialFit {
	if logger == nil {
		logger = slog.Default()
	}

	points := DensityPoints(g)
	cut := sort.Search(len(points), func(i int) bool { return points[i].Mid >= threshold })
	body := points[:cut]

	fit := ExponentialFit{Period: g.Period, N: len(body)}
	if len(body) < minPoints {
		logger.DebugContext(ctx, "too few body points for exponential fit",
			slog.Int("period", g.Period),
			slog.Int("points", len(body)))
		return fit
	}

	x := make([]float64, len(body))
	y := make([]float64, len(body))
	for i, p := range body {
		x[i] = p.Mid
		y[i] = math.Log(p.Density)
	}

	reg, err := linearFit(x, y)
	if err != nil {
		logger.WarnContext(ctx, "exponential body fit failed",
			slog.Int("period", g.Period),
			slog.String("error", err.Error()))
		return fit
	}
	if reg.Slope >= 0 {
		slopeErr := apperrors.NewInvalidSlopeError("exponential body", reg.Slope)
		logger.WarnContext(ctx, "rejecting exponential body fit",
			slog.Int("period", g.Period),
			slog.String("error", slopeErr.Error()))
		return fit
	}

	fit.Valid = true
	fit.Scale = -1 / reg.Slope
	fit.R2 = reg.R2
	return fit
}

// FitPowerLawTail fits the supra-threshold segment: ln(density) regressed on
// ln(midpoint), tail exponent = −slope. The tail mass fraction needs no fit
// and is filled regardless of regression success.
//
// The exponent comes from a log-log regression over aggregated bins rather
// than an individual-observation estimator: each period carries a single
// open-ended aggregate, so no raw observations exist to feed one.
func FitPowerLawTail(ctx context.Context, logger *slog.Logger, g remap.PeriodGrid, threshold float64, minPoints int) PowerLawFit {
	if logger == nil {
		logger = slog.Default()
	}

	points := DensityPoints(g)
	cut := sort.Search(len(points), func(i int) bool { return points[i].Mid >= threshold })
	tail := points[cut:]

	fit := PowerLawFit{
		Period:       g.Period,
		N:            len(tail),
		TailFraction: g.TailFraction(),
	}
	if len(tail) < minPoints {
		logger.DebugContext(ctx, "too few tail points for power-law fit",
			slog.Int("period", g.Period),
			slog.Int("points", len(tail)))
		return fit
	}

	x := make([]float64, len(tail))
	y := make([]float64, len(tail))
	for i, p := range tail {
		x[i] = math.Log(p.Mid)
		y[i] = math.Log(p.Density)
	}

	reg, err := linearFit(x, y)
	if err != nil {
		logger.WarnContext(ctx, "power-law tail fit failed",
			slog.Int("period", g.Period),
			slog.String("error", err.Error()))
		return fit
	}
	if reg.Slope >= 0 {
		slopeErr := apperrors.NewInvalidSlopeError("power-law tail", reg.Slope)
		logger.WarnContext(ctx, "rejecting power-law tail fit",
			slog.Int("period", g.Period),
			slog.String("error", slopeErr.Error()))
		return fit
	}

	fit.Valid = true
	fit.Exponent = -reg.Slope
	fit.ExponentSE = math.Abs(reg.SlopeSE)
	fit.R2 = reg.R2
	return fit
}

// FitAll runs both segment fitters for every period with a chosen split.
func FitAll(ctx context.Context, logger *slog.Logger, grids []remap.PeriodGrid, splits []RegimeSplit, scan config.ScanConfig) ([]ExponentialFit, []PowerLawFit) {
	if logger == nil {
		logger = slog.Default()
	}

	byPeriod := make(map[int]remap.PeriodGrid, len(grids))
	for _, g := range grids {
		byPeriod[g.Period] = g
	}

	exps := make([]ExponentialFit, 0, len(splits))
	pows := make([]PowerLawFit, 0, len(splits))

	for _, split := range splits {
		g, ok := byPeriod[split.Period]
		if !ok {
			logger.WarnContext(ctx, "split references a period missing from the grid table",
				slog.Int("period", split.Period))
			exps = append(exps, ExponentialFit{Period: split.Period})
			pows = append(pows, PowerLawFit{Period: split.Period})
			continue
		}

		exps = append(exps, FitExponentialBody(ctx, logger, g, split.Threshold, scan.MinPoints))
		pows = append(pows, FitPowerLawTail(ctx, logger, g, split.Threshold, scan.MinPoints))
	}

	return exps, pows
}

package regime

import (
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "incomefit/internal/errors"
)

// regression is an ordinary least-squares line fit with the slope standard
// error needed for the tail exponent.
type regression struct {
	Slope     float64
	Intercept float64
	R2        float64
	SlopeSE   float64
	N         int
}

// linearFit regresses y on x. Callers guarantee len(x) == len(y).
func linearFit(x, y []float64) (regression, error) {
	n := len(x)
	if n < 2 {
		return regression{}, apperrors.NewInsufficientDataError("regression needs at least 2 points", n)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return regression{}, apperrors.NewInsufficientDataError("regression is degenerate", n)
	}

	r2 := stat.RSquared(x, y, nil, alpha, beta)

	// Slope standard error: sqrt of residual variance over Σ(x-x̄)².
	xMean := stat.Mean(x, nil)
	var ssx, ssr float64
	for i := range x {
		dx := x[i] - xMean
		ssx += dx * dx
		resid := y[i] - (alpha + beta*x[i])
		ssr += resid * resid
	}

	var slopeSE float64
	if n > 2 && ssx > 0 {
		slopeSE = math.Sqrt(ssr / float64(n-2) / ssx)
	}

	return regression{
		Slope:     beta,
		Intercept: alpha,
		R2:        r2,
		SlopeSE:   slopeSE,
		N:         n,
	}, nil
}

// fitExpR2 fits ln(density) against midpoint and returns R², or 0 when the
// fit is unusable (too few points or a non-decaying slope).
func fitExpR2(points []DensityPoint, minPoints int) float64 {
	if len(points) < minPoints {
		return 0
	}
	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Mid
		y[i] = math.Log(p.Density)
	}
	reg, err := linearFit(x, y)
	if err != nil || reg.Slope >= 0 {
		return 0
	}
	return reg.R2
}

// fitPowR2 fits ln(density) against ln(midpoint) and returns R², or 0 when
// the fit is unusable.
func fitPowR2(points []DensityPoint, minPoints int) float64 {
	if len(points) < minPoints {
		return 0
	}
	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = math.Log(p.Mid)
		y[i] = math.Log(p.Density)
	}
	reg, err := linearFit(x, y)
	if err != nil || reg.Slope >= 0 {
		return 0
	}
	return reg.R2
}

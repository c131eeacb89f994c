// Package regime locates, per period, the transition point separating an
// exponential body from a power-law tail, and extracts both segments'
// parameters.
package regime

import "incomefit/internal/remap"

// DensityPoint is one grid cell reduced to (midpoint, count/width). Only
// cells with positive density survive, since both fits work in log space.
type DensityPoint struct {
	Mid     float64
	Density float64
}

// DensityPoints reduces a period's finite grid cells to density points in
// ascending midpoint order. The tail never appears here: its width is
// unknown, so it has no density.
func DensityPoints(g remap.PeriodGrid) []DensityPoint {
	points := make([]DensityPoint, 0, len(g.Cells))
	for _, c := range g.Cells {
		width := c.Width()
		if width <= 0 {
			continue
		}
		d := c.Count / width
		if d > 0 {
			points = append(points, DensityPoint{Mid: c.Midpoint(), Density: d})
		}
	}
	return points
}

// RegimeSplit is the chosen transition point for one period with its
// combined two-segment score.
type RegimeSplit struct {
	Period    int     `json:"period"`
	Threshold float64 `json:"m_c"`
	Score     float64 `json:"split_score"`
}

// ExponentialFit holds the exponential-body parameters for one period.
// Valid is false when the fit failed (too few points or a non-decaying
// slope); the run continues and the output fields stay missing.
type ExponentialFit struct {
	Period int     `json:"period"`
	Valid  bool    `json:"valid"`
	Scale  float64 `json:"scale"`
	R2     float64 `json:"r2"`
	N      int     `json:"n"`
}

// PowerLawFit holds the power-law-tail parameters for one period.
// TailFraction needs no regression and is filled even when Valid is false.
type PowerLawFit struct {
	Period       int     `json:"period"`
	Valid        bool    `json:"valid"`
	Exponent     float64 `json:"exponent"`
	ExponentSE   float64 `json:"exponent_se"`
	R2           float64 `json:"r2"`
	N            int     `json:"n"`
	TailFraction float64 `json:"tail_fraction"`
}

// TimeSeriesRow is one period's merged parameters. Pointer fields are nil
// where the underlying fit failed; the row itself is never dropped.
type TimeSeriesRow struct {
	Period         int      `json:"period"`
	Threshold      float64  `json:"m_c"`
	Score          float64  `json:"split_score"`
	Scale          *float64 `json:"scale"`
	ExpR2          *float64 `json:"exp_r2"`
	ExpN           int      `json:"exp_n"`
	TailExponent   *float64 `json:"tail_exponent"`
	TailExponentSE *float64 `json:"tail_exponent_se"`
	PowerR2        *float64 `json:"power_r2"`
	PowerN         int      `json:"power_n"`
	TailFraction   float64  `json:"tail_fraction"`
}

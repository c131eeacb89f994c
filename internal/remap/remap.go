package remap

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"incomefit/internal/bracket"
	"incomefit/internal/config"
	apperrors "incomefit/internal/errors"
)

// RemapPeriod redistributes one period's deflated brackets onto the uniform
// grid. Each grid cell accumulates, from every overlapping finite bracket,
// count × overlap ÷ bracket width; the open-ended bracket never participates
// in proportional allocation and is carried as the tail aggregate instead.
func RemapPeriod(period int, brackets []bracket.RealBracket, grid config.GridConfig) (PeriodGrid, error) {
	var finite []bracket.RealBracket
	var tail *bracket.RealBracket

	for i, b := range brackets {
		if b.Period != period {
			continue
		}
		if b.IsTail {
			if tail != nil {
				return PeriodGrid{}, apperrors.NewDegenerateBracketError(
					"multiple open-ended brackets after normalization", period)
			}
			tail = &brackets[i]
			continue
		}
		finite = append(finite, b)
	}

	result := PeriodGrid{Period: period}

	// True upper edge of the finite data; the tail starts exactly here.
	gridUpperMax := math.Inf(-1)
	for _, b := range finite {
		if b.Upper > gridUpperMax {
			gridUpperMax = b.Upper
		}
	}

	if len(finite) > 0 {
		// Cover the configured range, extended if the data reaches past it,
		// so no finite mass can fall off the end of the grid.
		limit := grid.MaxValue
		if gridUpperMax > limit {
			limit = gridUpperMax
		}

		numCells := int(math.Ceil(limit / grid.Width))
		for k := 0; k < numCells; k++ {
			lo := float64(k) * grid.Width
			hi := float64(k+1) * grid.Width
			var count float64

			for _, b := range finite {
				overlapLower := math.Max(b.Lower, lo)
				overlapUpper := math.Min(b.Upper, hi)
				overlap := overlapUpper - overlapLower
				if overlap > 0 && b.Width() > 0 {
					count += b.Count * overlap / b.Width()
				}
			}

			if count > 0 {
				result.Cells = append(result.Cells, GridCell{
					Period: period,
					Lower:  lo,
					Upper:  hi,
					Count:  count,
				})
			}
		}

		// Clip the last emitted cell to the data's true upper edge so finite
		// cells and tail are contiguous with no gap and no overlap. Density
		// downstream divides by cell width, so a padded edge cell would
		// understate the density of the last bin.
		if n := len(result.Cells); n > 0 {
			result.Cells[n-1].Upper = gridUpperMax
		}
	}

	if tail != nil {
		tailLower := gridUpperMax
		if len(finite) == 0 {
			// No finite cells to align with; the bracket's own deflated lower
			// bound is the only edge available.
			tailLower = tail.Lower
		}
		result.Tail = &TailCell{
			Period: period,
			Lower:  tailLower,
			Count:  tail.Count,
		}
	}

	return result, nil
}

// RemapAll remaps every period in the normalized table. Periods are
// independent, so they are fanned out across workers.
func RemapAll(ctx context.Context, logger *slog.Logger, brackets []bracket.RealBracket, grid config.GridConfig, workers int) ([]PeriodGrid, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}

	periods := bracket.Periods(brackets)
	grids := make([]PeriodGrid, len(periods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, period := range periods {
		i, period := i, period
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			pg, err := RemapPeriod(period, brackets, grid)
			if err != nil {
				return fmt.Errorf("remap period %d: %w", period, err)
			}
			grids[i] = pg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(grids, func(i, j int) bool { return grids[i].Period < grids[j].Period })

	logger.InfoContext(ctx, "remapped bracket table onto uniform grid",
		slog.Int("periods", len(grids)),
		slog.Float64("grid_width", grid.Width))

	return grids, nil
}

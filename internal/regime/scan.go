package regime

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"incomefit/internal/config"
	"incomefit/internal/remap"
)

// CandidateScore records one candidate split value's joint fit quality.
type CandidateScore struct {
	Threshold float64
	ExpR2     float64
	PowR2     float64
	Score     float64
}

// candidates returns the bounded, evenly-spaced candidate set [Min, Max]
// inclusive of both ends.
func candidates(scan config.ScanConfig) []float64 {
	n := int(math.Floor((scan.Max-scan.Min)/scan.Step)) + 1
	out := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		out = append(out, scan.Min+float64(k)*scan.Step)
	}
	return out
}

// ScanPeriod grid-searches the candidate split values for one period. Each
// candidate is scored by the weighted sum of the two segments' R²; neither
// segment's quality alone determines the optimum, so both are fitted at
// every candidate. Ties keep the lowest candidate because the scan ascends
// and only a strictly better score displaces the incumbent.
func ScanPeriod(g remap.PeriodGrid, scan config.ScanConfig) (RegimeSplit, []CandidateScore) {
	points := DensityPoints(g)

	cands := candidates(scan)
	scores := make([]CandidateScore, 0, len(cands))

	best := RegimeSplit{Period: g.Period, Threshold: scan.Min, Score: math.Inf(-1)}

	for _, mc := range cands {
		// Points are sorted by midpoint, so the partition is a prefix/suffix.
		cut := sort.Search(len(points), func(i int) bool { return points[i].Mid >= mc })
		body, tail := points[:cut], points[cut:]

		var expR2, powR2, score float64
		if len(body) >= scan.MinPoints && len(tail) >= scan.MinPoints {
			expR2 = fitExpR2(body, scan.MinPoints)
			powR2 = fitPowR2(tail, scan.MinPoints)
			score = scan.BodyWeight*expR2 + scan.TailWeight*powR2
		}

		scores = append(scores, CandidateScore{Threshold: mc, ExpR2: expR2, PowR2: powR2, Score: score})

		if score > best.Score {
			best.Score = score
			best.Threshold = mc
		}
	}

	if math.IsInf(best.Score, -1) {
		best.Score = 0
	}

	return best, scores
}

// ScanAll scans every period's grid. Periods share no mutable state, so the
// scans fan out across workers; output order is by period regardless of
// completion order, which keeps repeated runs identical.
func ScanAll(ctx context.Context, logger *slog.Logger, grids []remap.PeriodGrid, scan config.ScanConfig, workers int) ([]RegimeSplit, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}

	splits := make([]RegimeSplit, len(grids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, pg := range grids {
		i, pg := i, pg
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			split, _ := ScanPeriod(pg, scan)
			splits[i] = split

			logger.DebugContext(gctx, "scanned regime transition candidates",
				slog.Int("period", pg.Period),
				slog.Float64("m_c", split.Threshold),
				slog.Float64("score", split.Score))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(splits, func(i, j int) bool { return splits[i].Period < splits[j].Period })

	logger.InfoContext(ctx, "regime transition scan complete",
		slog.Int("periods", len(splits)))

	return splits, nil
}

// Package pipeline sequences the checkpointed stages of a run: normalize,
// remap, scan, fit, assemble. Every stage persists its output as a CSV
// checkpoint and is skipped on the next run when that checkpoint already
// exists, so an interrupted run resumes where it stopped.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"incomefit/internal/bracket"
	"incomefit/internal/config"
	"incomefit/internal/deflate"
	apperrors "incomefit/internal/errors"
	"incomefit/internal/exporter"
	"incomefit/internal/regime"
	"incomefit/internal/remap"
)

// Checkpoint table file names, one per stage.
const (
	NormalizedCheckpoint = "real_brackets.csv"
	RemappedCheckpoint   = "remapped.csv"
	ScanCheckpoint       = "regime_scan.csv"
	FitsCheckpoint       = "segment_fits.csv"
	TimeSeriesCheckpoint = "timeseries.csv"

	WorkbookExport = "timeseries.xlsx"
	JSONExport     = "timeseries.json"
)

// ShouldRun decides whether a stage executes. It depends only on checkpoint
// existence and the force flag: a present checkpoint skips the stage unless
// the caller forces recomputation.
func ShouldRun(checkpointPath string, force bool) bool {
	if force {
		return true
	}
	_, err := os.Stat(checkpointPath)
	return err != nil
}

// Options name the run inputs. The source paths are only read when the
// normalize stage actually executes; a fully checkpointed run never touches
// them.
type Options struct {
	BracketsPath  string
	DeflatorsPath string
	Force         bool
}

// Result is the outcome of a full run.
type Result struct {
	Rows              []regime.TimeSeriesRow
	SkippedPeriods    []int
	ReferencePeriod   int
	ReferenceQuantile *float64
}

// Pipeline runs the full reconciliation and fitting sequence.
type Pipeline struct {
	logger *slog.Logger
	cfg    *config.Config
	csv    *exporter.CSVWriter
	excel  *exporter.ExcelWriter
}

// New creates a Pipeline with the given logger and configuration.
func New(logger *slog.Logger, cfg *config.Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger: logger,
		cfg:    cfg,
		csv:    exporter.NewCSVWriter(logger),
		excel:  exporter.NewExcelWriter(logger),
	}
}

// Run executes every stage in order. Any returned error is fatal; per-period
// failures (missing deflator, unfittable segment) are absorbed upstream as
// skipped periods or missing output fields.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{}

	normalized, skipped, err := p.runNormalize(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.SkippedPeriods = skipped

	grids, err := p.runRemap(ctx, normalized, opts.Force)
	if err != nil {
		return nil, err
	}

	p.reportReferenceQuantile(ctx, grids, result)

	splits, err := p.runScan(ctx, grids, opts.Force)
	if err != nil {
		return nil, err
	}

	exps, pows, err := p.runFit(ctx, grids, splits, opts.Force)
	if err != nil {
		return nil, err
	}

	rows, err := p.runAssemble(ctx, splits, exps, pows, opts.Force)
	if err != nil {
		return nil, err
	}
	result.Rows = rows

	if err := p.export(ctx, rows); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "pipeline complete",
		slog.Int("periods", len(rows)),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (p *Pipeline) runNormalize(ctx context.Context, opts Options) ([]bracket.RealBracket, []int, error) {
	path := p.cfg.CheckpointPath(NormalizedCheckpoint)
	if !ShouldRun(path, opts.Force) {
		p.logger.InfoContext(ctx, "normalize stage skipped, checkpoint exists",
			slog.String("checkpoint", path))
		normalized, err := bracket.LoadNormalized(path)
		return normalized, nil, err
	}

	brackets, err := bracket.LoadSource(opts.BracketsPath)
	if err != nil {
		return nil, nil, err
	}
	table, err := deflate.LoadTable(opts.DeflatorsPath)
	if err != nil {
		return nil, nil, err
	}

	normalized, skipped := deflate.NormalizeAll(ctx, p.logger, brackets, table)
	if len(normalized) == 0 {
		return nil, nil, apperrors.NewInsufficientDataError("no periods survived deflation", 0)
	}

	if err := bracket.WriteNormalized(p.csv, path, normalized); err != nil {
		return nil, nil, err
	}
	p.logger.InfoContext(ctx, "normalize stage complete",
		slog.Int("brackets", len(normalized)),
		slog.Int("skipped_periods", len(skipped)),
		slog.String("checkpoint", path))

	return normalized, skipped, nil
}

func (p *Pipeline) runRemap(ctx context.Context, normalized []bracket.RealBracket, force bool) ([]remap.PeriodGrid, error) {
	path := p.cfg.CheckpointPath(RemappedCheckpoint)
	if !ShouldRun(path, force) {
		p.logger.InfoContext(ctx, "remap stage skipped, checkpoint exists",
			slog.String("checkpoint", path))
		return remap.LoadRemapped(path)
	}

	grids, err := remap.RemapAll(ctx, p.logger, normalized, p.cfg.Grid, p.cfg.Workers)
	if err != nil {
		return nil, err
	}

	if err := remap.WriteRemapped(p.csv, path, grids); err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "remap stage complete",
		slog.Int("periods", len(grids)),
		slog.String("checkpoint", path))

	return grids, nil
}

// reportReferenceQuantile logs the configured quantile for the most recent
// period. The quantile is diagnostic output, so estimation failure is a
// warning, never a fatal error.
func (p *Pipeline) reportReferenceQuantile(ctx context.Context, grids []remap.PeriodGrid, result *Result) {
	if len(grids) == 0 {
		return
	}

	ref := grids[len(grids)-1] // grids are sorted by period
	result.ReferencePeriod = ref.Period

	q, err := remap.Quantile(ref, p.cfg.Quantile.Q)
	if err != nil {
		p.logger.WarnContext(ctx, "reference quantile unavailable",
			slog.Int("period", ref.Period),
			slog.Float64("q", p.cfg.Quantile.Q),
			slog.String("error", err.Error()))
		return
	}

	result.ReferenceQuantile = &q
	p.logger.InfoContext(ctx, "reference quantile",
		slog.Int("period", ref.Period),
		slog.Float64("q", p.cfg.Quantile.Q),
		slog.Float64("value", q))
}

func (p *Pipeline) runScan(ctx context.Context, grids []remap.PeriodGrid, force bool) ([]regime.RegimeSplit, error) {
	path := p.cfg.CheckpointPath(ScanCheckpoint)
	if !ShouldRun(path, force) {
		p.logger.InfoContext(ctx, "scan stage skipped, checkpoint exists",
			slog.String("checkpoint", path))
		return regime.LoadSplits(path)
	}

	splits, err := regime.ScanAll(ctx, p.logger, grids, p.cfg.Scan, p.cfg.Workers)
	if err != nil {
		return nil, err
	}

	if err := regime.WriteSplits(p.csv, path, splits); err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "scan stage complete",
		slog.Int("periods", len(splits)),
		slog.String("checkpoint", path))

	return splits, nil
}

func (p *Pipeline) runFit(ctx context.Context, grids []remap.PeriodGrid, splits []regime.RegimeSplit, force bool) ([]regime.ExponentialFit, []regime.PowerLawFit, error) {
	path := p.cfg.CheckpointPath(FitsCheckpoint)
	if !ShouldRun(path, force) {
		p.logger.InfoContext(ctx, "fit stage skipped, checkpoint exists",
			slog.String("checkpoint", path))
		return regime.LoadFits(path)
	}

	exps, pows := regime.FitAll(ctx, p.logger, grids, splits, p.cfg.Scan)

	if err := regime.WriteFits(p.csv, path, exps, pows); err != nil {
		return nil, nil, err
	}
	p.logger.InfoContext(ctx, "fit stage complete",
		slog.Int("periods", len(exps)),
		slog.String("checkpoint", path))

	return exps, pows, nil
}

func (p *Pipeline) runAssemble(ctx context.Context, splits []regime.RegimeSplit, exps []regime.ExponentialFit, pows []regime.PowerLawFit, force bool) ([]regime.TimeSeriesRow, error) {
	path := p.cfg.CheckpointPath(TimeSeriesCheckpoint)
	if !ShouldRun(path, force) {
		p.logger.InfoContext(ctx, "assemble stage skipped, checkpoint exists",
			slog.String("checkpoint", path))
		return regime.LoadTimeSeries(path)
	}

	rows, err := regime.AssembleTimeSeries(splits, exps, pows)
	if err != nil {
		return nil, err
	}

	if err := regime.WriteTimeSeries(p.csv, path, rows); err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "assemble stage complete",
		slog.Int("periods", len(rows)),
		slog.String("checkpoint", path))

	return rows, nil
}

// timeSeriesExport is the JSON export envelope.
type timeSeriesExport struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Periods     int                    `json:"periods"`
	Rows        []regime.TimeSeriesRow `json:"rows"`
}

// export writes the analyst-facing copies of the final table: an Excel
// workbook and a JSON document next to the CSV checkpoint.
func (p *Pipeline) export(ctx context.Context, rows []regime.TimeSeriesRow) error {
	workbookPath := p.cfg.CheckpointPath(WorkbookExport)
	if err := p.excel.WriteWorkbook(workbookPath, "TimeSeries", regime.TimeSeriesHeader, regime.TimeSeriesRecords(rows)); err != nil {
		return err
	}

	jsonPath := p.cfg.CheckpointPath(JSONExport)
	if err := exporter.WriteJSON(jsonPath, timeSeriesExport{
		GeneratedAt: time.Now().UTC(),
		Periods:     len(rows),
		Rows:        rows,
	}); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "exports written",
		slog.String("workbook", workbookPath),
		slog.String("json", jsonPath))
	return nil
}

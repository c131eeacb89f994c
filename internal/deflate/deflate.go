// Package deflate converts nominal bracket bounds into one reference-period's
// real currency using per-period index ratios.
package deflate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"incomefit/internal/bracket"
	apperrors "incomefit/internal/errors"
	"incomefit/internal/exporter"
)

// Table maps a period to its index ratio
// (reference-period index ÷ period index).
type Table map[int]float64

// DeflatorHeader is the column contract of the deflator input table.
var DeflatorHeader = []string{"period", "index_ratio"}

// LoadTable reads the deflator table produced by the upstream index fetcher.
func LoadTable(path string) (Table, error) {
	header, records, err := exporter.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := exporter.CheckHeader(header, DeflatorHeader); err != nil {
		return nil, err
	}

	table := make(Table, len(records))
	for i, rec := range records {
		if len(rec) != len(DeflatorHeader) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: expected %d fields, got %d", i+2, len(DeflatorHeader), len(rec)), nil)
		}
		period, err := exporter.ParseInt(rec[0], i+2, "period")
		if err != nil {
			return nil, err
		}
		ratio, err := exporter.ParseFloat(rec[1], i+2, "index_ratio")
		if err != nil {
			return nil, err
		}
		if ratio <= 0 {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: index ratio %.6g must be positive", i+2, ratio), nil)
		}
		table[period] = ratio
	}

	return table, nil
}

// Ratio returns the index ratio for a period, or a MissingIndex error.
func (t Table) Ratio(period int) (float64, error) {
	ratio, ok := t[period]
	if !ok {
		return 0, apperrors.NewMissingIndexError(period)
	}
	return ratio, nil
}

// Normalize converts one bracket to reference-period currency. The absent
// upper bound of the open-ended bracket stays absent.
func Normalize(b bracket.Bracket, ratio float64) bracket.RealBracket {
	rb := bracket.RealBracket{
		Period: b.Period,
		Lower:  b.Lower * ratio,
		IsTail: !b.HasUpper,
		Count:  b.Count,
	}
	if b.HasUpper {
		rb.Upper = b.Upper * ratio
	}
	return rb
}

// NormalizeAll converts a whole bracket table. Periods without a deflator are
// skipped with a warning and reported back; the rest of the batch continues.
func NormalizeAll(ctx context.Context, logger *slog.Logger, brackets []bracket.Bracket, table Table) ([]bracket.RealBracket, []int) {
	if logger == nil {
		logger = slog.Default()
	}

	var normalized []bracket.RealBracket
	skipped := make(map[int]bool)

	for _, b := range brackets {
		ratio, err := table.Ratio(b.Period)
		if err != nil {
			if !skipped[b.Period] {
				skipped[b.Period] = true
				logger.WarnContext(ctx, "skipping period without deflator index",
					slog.Int("period", b.Period))
			}
			continue
		}
		normalized = append(normalized, Normalize(b, ratio))
	}

	skippedPeriods := make([]int, 0, len(skipped))
	for period := range skipped {
		skippedPeriods = append(skippedPeriods, period)
	}
	sort.Ints(skippedPeriods)

	logger.InfoContext(ctx, "normalized bracket table",
		slog.Int("rows", len(normalized)),
		slog.Int("skipped_periods", len(skippedPeriods)))

	return normalized, skippedPeriods
}

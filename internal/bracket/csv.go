package bracket

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	apperrors "incomefit/internal/errors"
	"incomefit/internal/exporter"
)

// Column contracts for the source and normalized tables.
var (
	SourceHeader     = []string{"period", "lower", "upper", "count"}
	NormalizedHeader = []string{"period", "lower_real", "upper_real", "is_tail", "count"}
)

// LoadSource reads the source bracket table. An empty upper field marks the
// open-ended bracket. The table is validated before being returned.
func LoadSource(path string) ([]Bracket, error) {
	header, records, err := exporter.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := exporter.CheckHeader(header, SourceHeader); err != nil {
		return nil, err
	}

	brackets := make([]Bracket, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(SourceHeader) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: expected %d fields, got %d", i+2, len(SourceHeader), len(rec)), nil)
		}

		period, err := exporter.ParseInt(rec[0], i+2, "period")
		if err != nil {
			return nil, err
		}
		lower, err := exporter.ParseFloat(rec[1], i+2, "lower")
		if err != nil {
			return nil, err
		}
		count, err := exporter.ParseFloat(rec[3], i+2, "count")
		if err != nil {
			return nil, err
		}

		b := Bracket{Period: period, Lower: lower, Count: count}
		if strings.TrimSpace(rec[2]) != "" {
			upper, err := exporter.ParseFloat(rec[2], i+2, "upper")
			if err != nil {
				return nil, err
			}
			b.Upper = upper
			b.HasUpper = true
		}
		brackets = append(brackets, b)
	}

	if err := Validate(brackets); err != nil {
		return nil, err
	}

	slog.Debug("loaded source bracket table",
		slog.String("path", path),
		slog.Int("rows", len(brackets)))

	return brackets, nil
}

// WriteNormalized persists the normalized bracket table checkpoint.
func WriteNormalized(w *exporter.CSVWriter, path string, brackets []RealBracket) error {
	records := make([][]string, 0, len(brackets))
	for _, b := range brackets {
		upper := ""
		if !b.IsTail {
			upper = exporter.FormatFloat(b.Upper)
		}
		records = append(records, []string{
			strconv.Itoa(b.Period),
			exporter.FormatFloat(b.Lower),
			upper,
			strconv.FormatBool(b.IsTail),
			exporter.FormatFloat(b.Count),
		})
	}
	return w.WriteSimpleCSV(path, NormalizedHeader, records)
}

// LoadNormalized reads a normalized bracket table checkpoint.
func LoadNormalized(path string) ([]RealBracket, error) {
	header, records, err := exporter.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := exporter.CheckHeader(header, NormalizedHeader); err != nil {
		return nil, err
	}

	brackets := make([]RealBracket, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(NormalizedHeader) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: expected %d fields, got %d", i+2, len(NormalizedHeader), len(rec)), nil)
		}

		period, err := exporter.ParseInt(rec[0], i+2, "period")
		if err != nil {
			return nil, err
		}
		lower, err := exporter.ParseFloat(rec[1], i+2, "lower_real")
		if err != nil {
			return nil, err
		}
		isTail, err := strconv.ParseBool(strings.TrimSpace(rec[3]))
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d: bad is_tail", i+2), err)
		}
		count, err := exporter.ParseFloat(rec[4], i+2, "count")
		if err != nil {
			return nil, err
		}

		b := RealBracket{Period: period, Lower: lower, IsTail: isTail, Count: count}
		if !isTail {
			upper, err := exporter.ParseFloat(rec[2], i+2, "upper_real")
			if err != nil {
				return nil, err
			}
			b.Upper = upper
		} else if strings.TrimSpace(rec[2]) != "" {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: tail bracket carries an upper bound", i+2), nil)
		}
		brackets = append(brackets, b)
	}

	return brackets, nil
}

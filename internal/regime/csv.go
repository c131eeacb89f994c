package regime

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "incomefit/internal/errors"
	"incomefit/internal/exporter"
)

// Column contracts for the regime checkpoint tables.
var (
	ScanHeader = []string{"period", "m_c", "split_score"}
	FitsHeader = []string{"period", "scale", "exp_r2", "exp_n",
		"tail_exponent", "tail_exponent_se", "power_r2", "power_n", "tail_fraction"}
	TimeSeriesHeader = []string{"period", "m_c", "split_score", "scale", "exp_r2", "exp_n",
		"tail_exponent", "tail_exponent_se", "power_r2", "power_n", "tail_fraction"}
)

// WriteSplits persists the per-period scan checkpoint.
func WriteSplits(w *exporter.CSVWriter, path string, splits []RegimeSplit) error {
	records := make([][]string, 0, len(splits))
	for _, s := range splits {
		records = append(records, []string{
			strconv.Itoa(s.Period),
			exporter.FormatFloat(s.Threshold),
			exporter.FormatFloat(s.Score),
		})
	}
	return w.WriteSimpleCSV(path, ScanHeader, records)
}

// LoadSplits reads a scan checkpoint.
func LoadSplits(path string) ([]RegimeSplit, error) {
	header, records, err := exporter.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := exporter.CheckHeader(header, ScanHeader); err != nil {
		return nil, err
	}

	splits := make([]RegimeSplit, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(ScanHeader) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: expected %d fields, got %d", i+2, len(ScanHeader), len(rec)), nil)
		}
		period, err := exporter.ParseInt(rec[0], i+2, "period")
		if err != nil {
			return nil, err
		}
		threshold, err := exporter.ParseFloat(rec[1], i+2, "m_c")
		if err != nil {
			return nil, err
		}
		score, err := exporter.ParseFloat(rec[2], i+2, "split_score")
		if err != nil {
			return nil, err
		}
		splits = append(splits, RegimeSplit{Period: period, Threshold: threshold, Score: score})
	}
	return splits, nil
}

// WriteFits persists both segment fits as one checkpoint table. Missing
// parameters are written as empty fields, keeping failed periods visible.
func WriteFits(w *exporter.CSVWriter, path string, exps []ExponentialFit, pows []PowerLawFit) error {
	powByPeriod := make(map[int]PowerLawFit, len(pows))
	for _, p := range pows {
		powByPeriod[p.Period] = p
	}

	records := make([][]string, 0, len(exps))
	for _, e := range exps {
		p := powByPeriod[e.Period]
		records = append(records, []string{
			strconv.Itoa(e.Period),
			optionalFloat(e.Scale, e.Valid),
			optionalFloat(e.R2, e.Valid),
			strconv.Itoa(e.N),
			optionalFloat(p.Exponent, p.Valid),
			optionalFloat(p.ExponentSE, p.Valid),
			optionalFloat(p.R2, p.Valid),
			strconv.Itoa(p.N),
			exporter.FormatFloat(p.TailFraction),
		})
	}
	return w.WriteSimpleCSV(path, FitsHeader, records)
}

// LoadFits reads a segment-fit checkpoint back into both fit slices.
func LoadFits(path string) ([]ExponentialFit, []PowerLawFit, error) {
	header, records, err := exporter.ReadCSV(path)
	if err != nil {
		return nil, nil, err
	}
	if err := exporter.CheckHeader(header, FitsHeader); err != nil {
		return nil, nil, err
	}

	exps := make([]ExponentialFit, 0, len(records))
	pows := make([]PowerLawFit, 0, len(records))

	for i, rec := range records {
		if len(rec) != len(FitsHeader) {
			return nil, nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: expected %d fields, got %d", i+2, len(FitsHeader), len(rec)), nil)
		}
		row := i + 2

		period, err := exporter.ParseInt(rec[0], row, "period")
		if err != nil {
			return nil, nil, err
		}

		exp := ExponentialFit{Period: period}
		exp.N, err = exporter.ParseInt(rec[3], row, "exp_n")
		if err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(rec[1]) != "" {
			exp.Valid = true
			if exp.Scale, err = exporter.ParseFloat(rec[1], row, "scale"); err != nil {
				return nil, nil, err
			}
			if exp.R2, err = exporter.ParseFloat(rec[2], row, "exp_r2"); err != nil {
				return nil, nil, err
			}
		}

		pow := PowerLawFit{Period: period}
		pow.N, err = exporter.ParseInt(rec[7], row, "power_n")
		if err != nil {
			return nil, nil, err
		}
		if pow.TailFraction, err = exporter.ParseFloat(rec[8], row, "tail_fraction"); err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(rec[4]) != "" {
			pow.Valid = true
			if pow.Exponent, err = exporter.ParseFloat(rec[4], row, "tail_exponent"); err != nil {
				return nil, nil, err
			}
			if pow.ExponentSE, err = exporter.ParseFloat(rec[5], row, "tail_exponent_se"); err != nil {
				return nil, nil, err
			}
			if pow.R2, err = exporter.ParseFloat(rec[6], row, "power_r2"); err != nil {
				return nil, nil, err
			}
		}

		exps = append(exps, exp)
		pows = append(pows, pow)
	}

	return exps, pows, nil
}

// TimeSeriesRecords renders the merged series in the fixed output column
// order, shared by the CSV checkpoint and the workbook export.
func TimeSeriesRecords(rows []TimeSeriesRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Period),
			exporter.FormatFloat(r.Threshold),
			exporter.FormatFloat(r.Score),
			optionalPtr(r.Scale),
			optionalPtr(r.ExpR2),
			strconv.Itoa(r.ExpN),
			optionalPtr(r.TailExponent),
			optionalPtr(r.TailExponentSE),
			optionalPtr(r.PowerR2),
			strconv.Itoa(r.PowerN),
			exporter.FormatFloat(r.TailFraction),
		})
	}
	return records
}

// WriteTimeSeries persists the merged per-period parameter table.
func WriteTimeSeries(w *exporter.CSVWriter, path string, rows []TimeSeriesRow) error {
	return w.WriteSimpleCSV(path, TimeSeriesHeader, TimeSeriesRecords(rows))
}

// LoadTimeSeries reads a time-series checkpoint back into rows.
func LoadTimeSeries(path string) ([]TimeSeriesRow, error) {
	header, records, err := exporter.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := exporter.CheckHeader(header, TimeSeriesHeader); err != nil {
		return nil, err
	}

	rows := make([]TimeSeriesRow, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(TimeSeriesHeader) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: expected %d fields, got %d", i+2, len(TimeSeriesHeader), len(rec)), nil)
		}
		row := i + 2

		var r TimeSeriesRow
		if r.Period, err = exporter.ParseInt(rec[0], row, "period"); err != nil {
			return nil, err
		}
		if r.Threshold, err = exporter.ParseFloat(rec[1], row, "m_c"); err != nil {
			return nil, err
		}
		if r.Score, err = exporter.ParseFloat(rec[2], row, "split_score"); err != nil {
			return nil, err
		}
		if r.Scale, err = parseOptional(rec[3], row, "scale"); err != nil {
			return nil, err
		}
		if r.ExpR2, err = parseOptional(rec[4], row, "exp_r2"); err != nil {
			return nil, err
		}
		if r.ExpN, err = exporter.ParseInt(rec[5], row, "exp_n"); err != nil {
			return nil, err
		}
		if r.TailExponent, err = parseOptional(rec[6], row, "tail_exponent"); err != nil {
			return nil, err
		}
		if r.TailExponentSE, err = parseOptional(rec[7], row, "tail_exponent_se"); err != nil {
			return nil, err
		}
		if r.PowerR2, err = parseOptional(rec[8], row, "power_r2"); err != nil {
			return nil, err
		}
		if r.PowerN, err = exporter.ParseInt(rec[9], row, "power_n"); err != nil {
			return nil, err
		}
		if r.TailFraction, err = exporter.ParseFloat(rec[10], row, "tail_fraction"); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func optionalFloat(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return exporter.FormatFloat(v)
}

func optionalPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return exporter.FormatFloat(*v)
}

func parseOptional(field string, row int, name string) (*float64, error) {
	if strings.TrimSpace(field) == "" {
		return nil, nil
	}
	v, err := exporter.ParseFloat(field, row, name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

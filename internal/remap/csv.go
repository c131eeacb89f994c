package remap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "incomefit/internal/errors"
	"incomefit/internal/exporter"
)

// RemappedHeader is the column contract of the remapped checkpoint table.
var RemappedHeader = []string{"period", "lower_bound", "upper_bound", "count", "is_tail"}

// WriteRemapped persists the remapped grid+tail checkpoint, sorted by
// (period, lower_bound). The tail row's upper bound stays empty.
func WriteRemapped(w *exporter.CSVWriter, path string, grids []PeriodGrid) error {
	sorted := make([]PeriodGrid, len(grids))
	copy(sorted, grids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	var records [][]string
	for _, g := range sorted {
		for _, c := range g.Cells {
			records = append(records, []string{
				strconv.Itoa(c.Period),
				exporter.FormatFloat(c.Lower),
				exporter.FormatFloat(c.Upper),
				exporter.FormatFloat(c.Count),
				"false",
			})
		}
		if g.Tail != nil {
			records = append(records, []string{
				strconv.Itoa(g.Tail.Period),
				exporter.FormatFloat(g.Tail.Lower),
				"",
				exporter.FormatFloat(g.Tail.Count),
				"true",
			})
		}
	}

	return w.WriteSimpleCSV(path, RemappedHeader, records)
}

// LoadRemapped reads a remapped checkpoint back into per-period grids.
func LoadRemapped(path string) ([]PeriodGrid, error) {
	header, records, err := exporter.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := exporter.CheckHeader(header, RemappedHeader); err != nil {
		return nil, err
	}

	byPeriod := make(map[int]*PeriodGrid)
	var order []int

	for i, rec := range records {
		if len(rec) != len(RemappedHeader) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: expected %d fields, got %d", i+2, len(RemappedHeader), len(rec)), nil)
		}

		period, err := exporter.ParseInt(rec[0], i+2, "period")
		if err != nil {
			return nil, err
		}
		lower, err := exporter.ParseFloat(rec[1], i+2, "lower_bound")
		if err != nil {
			return nil, err
		}
		count, err := exporter.ParseFloat(rec[3], i+2, "count")
		if err != nil {
			return nil, err
		}
		isTail, err := strconv.ParseBool(strings.TrimSpace(rec[4]))
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d: bad is_tail", i+2), err)
		}

		g, ok := byPeriod[period]
		if !ok {
			g = &PeriodGrid{Period: period}
			byPeriod[period] = g
			order = append(order, period)
		}

		if isTail {
			if g.Tail != nil {
				return nil, apperrors.NewDegenerateBracketError(
					"multiple tail rows in remapped checkpoint", period)
			}
			g.Tail = &TailCell{Period: period, Lower: lower, Count: count}
			continue
		}

		upper, err := exporter.ParseFloat(rec[2], i+2, "upper_bound")
		if err != nil {
			return nil, err
		}
		g.Cells = append(g.Cells, GridCell{Period: period, Lower: lower, Upper: upper, Count: count})
	}

	sort.Ints(order)
	grids := make([]PeriodGrid, 0, len(order))
	for _, period := range order {
		g := byPeriod[period]
		sort.Slice(g.Cells, func(i, j int) bool { return g.Cells[i].Lower < g.Cells[j].Lower })
		grids = append(grids, *g)
	}

	return grids, nil
}

package exporter

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCSVWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "table.csv")

	w := NewCSVWriter(slog.Default())
	headers := []string{"period", "count"}
	records := [][]string{
		{"1994", "100.5"},
		{"1995", "0"},
	}
	require.NoError(t, w.WriteSimpleCSV(path, headers, records))

	gotHeader, gotRecords, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, headers, gotHeader)
	assert.Equal(t, records, gotRecords)
}

func TestCSVWriter_BOMPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")

	w := NewCSVWriter(nil)
	require.NoError(t, w.WriteCSV(path, WriteOptions{
		Headers:   []string{"period"},
		Records:   [][]string{{"2024"}},
		BOMPrefix: true,
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])

	header, records, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"period"}, header)
	assert.Equal(t, [][]string{{"2024"}}, records)
}

func TestReadCSV_Missing(t *testing.T) {
	_, _, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestExcelWriter_WriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.xlsx")

	w := NewExcelWriter(slog.Default())
	err := w.WriteWorkbook(path, "TimeSeries",
		[]string{"period", "scale"},
		[][]string{{"1994", "43210.5"}, {"1995", ""}})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("TimeSeries")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"period", "scale"}, rows[0])
	assert.Equal(t, []string{"1994", "43210.5"}, rows[1])
}

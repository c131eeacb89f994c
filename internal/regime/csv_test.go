package regime

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incomefit/internal/exporter"
)

func TestSplitsRoundTrip(t *testing.T) {
	w := exporter.NewCSVWriter(slog.Default())
	path := filepath.Join(t.TempDir(), "regime_scan.csv")

	splits := []RegimeSplit{
		{Period: 1994, Threshold: 100000, Score: 1.8734521},
		{Period: 1995, Threshold: 50000, Score: 0},
	}
	require.NoError(t, WriteSplits(w, path, splits))

	loaded, err := LoadSplits(path)
	require.NoError(t, err)
	assert.Equal(t, splits, loaded)
}

func TestLoadSplits_HeaderMismatch(t *testing.T) {
	w := exporter.NewCSVWriter(slog.Default())
	path := filepath.Join(t.TempDir(), "regime_scan.csv")
	require.NoError(t, w.WriteSimpleCSV(path, []string{"period", "threshold"}, nil))

	_, err := LoadSplits(path)
	assert.Error(t, err)
}

func TestFitsRoundTrip(t *testing.T) {
	w := exporter.NewCSVWriter(slog.Default())
	path := filepath.Join(t.TempDir(), "segment_fits.csv")

	exps := []ExponentialFit{
		{Period: 1994, Valid: true, Scale: 40123.5, R2: 0.991, N: 20},
		{Period: 1995, Valid: false, N: 2},
	}
	pows := []PowerLawFit{
		{Period: 1994, Valid: true, Exponent: 2.47, ExponentSE: 0.031, R2: 0.968, N: 40, TailFraction: 0.052},
		{Period: 1995, Valid: false, N: 1, TailFraction: 0.12},
	}
	require.NoError(t, WriteFits(w, path, exps, pows))

	loadedExps, loadedPows, err := LoadFits(path)
	require.NoError(t, err)
	assert.Equal(t, exps, loadedExps)
	assert.Equal(t, pows, loadedPows)
}

func TestWriteFits_InvalidFitsLeaveEmptyFields(t *testing.T) {
	w := exporter.NewCSVWriter(slog.Default())
	path := filepath.Join(t.TempDir(), "segment_fits.csv")

	exps := []ExponentialFit{{Period: 1995, N: 2}}
	pows := []PowerLawFit{{Period: 1995, N: 1, TailFraction: 0.12}}
	require.NoError(t, WriteFits(w, path, exps, pows))

	header, records, err := exporter.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, FitsHeader, header)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "1995", rec[0])
	assert.Empty(t, rec[1]) // scale
	assert.Empty(t, rec[2]) // exp_r2
	assert.Equal(t, "2", rec[3])
	assert.Empty(t, rec[4]) // tail_exponent
	assert.Equal(t, "0.12", rec[8])
}

func TestTimeSeriesRecords_MissingValues(t *testing.T) {
	scale := 40000.0
	rows := []TimeSeriesRow{
		{Period: 1994, Threshold: 100000, Score: 1.8, Scale: &scale, ExpN: 20, PowerN: 40, TailFraction: 0.05},
		{Period: 1995, Threshold: 50000, Score: 0, ExpN: 2, PowerN: 1, TailFraction: 0.12},
	}

	records := TimeSeriesRecords(rows)
	require.Len(t, records, 2)

	assert.Equal(t, "40000", records[0][3])
	assert.Empty(t, records[0][4]) // exp_r2 pointer was nil
	assert.Empty(t, records[1][3])
	assert.Equal(t, "0.12", records[1][10])
}

func TestTimeSeriesRoundTrip(t *testing.T) {
	w := exporter.NewCSVWriter(slog.Default())
	path := filepath.Join(t.TempDir(), "timeseries.csv")

	scale, expR2 := 40123.5, 0.991
	rows := []TimeSeriesRow{
		{Period: 1994, Threshold: 100000, Score: 1.8, Scale: &scale, ExpR2: &expR2, ExpN: 20, PowerN: 40, TailFraction: 0.05},
		{Period: 1995, Threshold: 50000, Score: 0, ExpN: 2, PowerN: 1, TailFraction: 0.12},
	}
	require.NoError(t, WriteTimeSeries(w, path, rows))

	loaded, err := LoadTimeSeries(path)
	require.NoError(t, err)
	assert.Equal(t, rows, loaded)
}

func TestWriteTimeSeries(t *testing.T) {
	w := exporter.NewCSVWriter(slog.Default())
	path := filepath.Join(t.TempDir(), "timeseries.csv")

	rows := []TimeSeriesRow{{Period: 1994, Threshold: 100000, Score: 1.8, TailFraction: 0.05}}
	require.NoError(t, WriteTimeSeries(w, path, rows))

	header, records, err := exporter.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, TimeSeriesHeader, header)
	require.Len(t, records, 1)
	assert.Equal(t, "1994", records[0][0])
	assert.Equal(t, "100000", records[0][1])
}

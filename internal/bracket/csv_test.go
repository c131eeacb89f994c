package bracket

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "incomefit/internal/errors"
	"incomefit/internal/exporter"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brackets.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSource(t *testing.T) {
	path := writeFixture(t, "period,lower,upper,count\n"+
		"1994,0,10000,100\n"+
		"1994,10000,20000,50\n"+
		"1994,20000,,10\n")

	brackets, err := LoadSource(path)
	require.NoError(t, err)
	require.Len(t, brackets, 3)

	assert.Equal(t, Bracket{Period: 1994, Lower: 0, Upper: 10000, HasUpper: true, Count: 100}, brackets[0])
	assert.False(t, brackets[2].HasUpper)
	assert.Equal(t, 10.0, brackets[2].Count)
}

func TestLoadSource_Failures(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantType apperrors.ErrorType
	}{
		{
			name:     "wrong header",
			content:  "year,lo,hi,n\n1994,0,10,1\n",
			wantType: apperrors.ErrTypeParsing,
		},
		{
			name:     "unparsable count",
			content:  "period,lower,upper,count\n1994,0,10000,many\n",
			wantType: apperrors.ErrTypeParsing,
		},
		{
			name:     "degenerate table",
			content:  "period,lower,upper,count\n1994,0,10000,100\n",
			wantType: apperrors.ErrTypeDegenerateBracket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSource(writeFixture(t, tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestNormalizedRoundTrip(t *testing.T) {
	brackets := []RealBracket{
		{Period: 1994, Lower: 0, Upper: 21163.65, Count: 100},
		{Period: 1994, Lower: 21163.65, Upper: 42327.3, Count: 50},
		{Period: 1994, Lower: 42327.3, IsTail: true, Count: 10},
	}

	path := filepath.Join(t.TempDir(), "real_brackets.csv")
	w := exporter.NewCSVWriter(slog.Default())
	require.NoError(t, WriteNormalized(w, path, brackets))

	got, err := LoadNormalized(path)
	require.NoError(t, err)
	assert.Equal(t, brackets, got)
}

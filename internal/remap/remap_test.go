package remap

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incomefit/internal/bracket"
	"incomefit/internal/config"
	apperrors "incomefit/internal/errors"
)

func grid5000() config.GridConfig {
	return config.GridConfig{Width: 5000, MaxValue: 500000}
}

// The worked example: two finite brackets split evenly onto a half-width
// grid, tail carried through untouched.
func TestRemapPeriod_SplitsBracketsProportionally(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 1994, Lower: 0, Upper: 10000, Count: 100},
		{Period: 1994, Lower: 10000, Upper: 20000, Count: 50},
		{Period: 1994, Lower: 20000, IsTail: true, Count: 10},
	}

	g, err := RemapPeriod(1994, brackets, grid5000())
	require.NoError(t, err)

	require.Len(t, g.Cells, 4)
	want := []GridCell{
		{Period: 1994, Lower: 0, Upper: 5000, Count: 50},
		{Period: 1994, Lower: 5000, Upper: 10000, Count: 50},
		{Period: 1994, Lower: 10000, Upper: 15000, Count: 25},
		{Period: 1994, Lower: 15000, Upper: 20000, Count: 25},
	}
	for i, c := range g.Cells {
		assert.InDelta(t, want[i].Lower, c.Lower, 1e-9)
		assert.InDelta(t, want[i].Upper, c.Upper, 1e-9)
		assert.InDelta(t, want[i].Count, c.Count, 1e-9)
	}

	require.NotNil(t, g.Tail)
	assert.Equal(t, 20000.0, g.Tail.Lower)
	assert.Equal(t, 10.0, g.Tail.Count)
}

func TestRemapPeriod_BracketInsideOneCell(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 2000, Lower: 6000, Upper: 9000, Count: 40},
		{Period: 2000, Lower: 9000, IsTail: true, Count: 1},
	}

	g, err := RemapPeriod(2000, brackets, grid5000())
	require.NoError(t, err)

	require.Len(t, g.Cells, 1)
	assert.Equal(t, 5000.0, g.Cells[0].Lower)
	assert.InDelta(t, 40.0, g.Cells[0].Count, 1e-9)
}

func TestRemapPeriod_ClipsLastCellToDataEdge(t *testing.T) {
	// Deflation produces ragged bounds; the last emitted cell must end where
	// the finite data ends so the tail attaches with no gap.
	brackets := []bracket.RealBracket{
		{Period: 1994, Lower: 0, Upper: 211634.38, Count: 500},
		{Period: 1994, Lower: 211636.5, IsTail: true, Count: 7},
	}

	g, err := RemapPeriod(1994, brackets, grid5000())
	require.NoError(t, err)

	last := g.Cells[len(g.Cells)-1]
	assert.Equal(t, 211634.38, last.Upper)
	require.NotNil(t, g.Tail)
	// Tail starts at the grid's true upper edge, not the bracket's own
	// deflated lower bound 211636.5.
	assert.Equal(t, 211634.38, g.Tail.Lower)
}

func TestRemapPeriod_MassConservation(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 1994, Lower: 0, Upper: 13250, Count: 123.4},
		{Period: 1994, Lower: 13250, Upper: 27111, Count: 56.7},
		{Period: 1994, Lower: 27111, Upper: 98765.4, Count: 89.1},
		{Period: 1994, Lower: 98765.4, IsTail: true, Count: 11.3},
	}

	g, err := RemapPeriod(1994, brackets, grid5000())
	require.NoError(t, err)

	var input float64
	for _, b := range brackets {
		input += b.Count
	}
	assert.InDelta(t, input, g.TotalMass(), 1e-9)
}

func TestRemapPeriod_ContiguityNoOverlap(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 1994, Lower: 2500, Upper: 18000, Count: 60},
		{Period: 1994, Lower: 18000, Upper: 33333, Count: 30},
		{Period: 1994, Lower: 33333, IsTail: true, Count: 5},
	}

	g, err := RemapPeriod(1994, brackets, grid5000())
	require.NoError(t, err)

	for i := 1; i < len(g.Cells); i++ {
		assert.Equal(t, g.Cells[i-1].Upper, g.Cells[i].Lower,
			"cells %d and %d must be contiguous", i-1, i)
	}
	require.NotNil(t, g.Tail)
	assert.Equal(t, g.Cells[len(g.Cells)-1].Upper, g.Tail.Lower)
}

func TestRemapPeriod_NoFiniteBrackets(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 1994, Lower: 50000, IsTail: true, Count: 42},
	}

	g, err := RemapPeriod(1994, brackets, grid5000())
	require.NoError(t, err)

	assert.Empty(t, g.Cells)
	require.NotNil(t, g.Tail)
	assert.Equal(t, 50000.0, g.Tail.Lower)
	assert.Equal(t, 42.0, g.Tail.Count)
	assert.Equal(t, 1.0, g.TailFraction())
}

func TestRemapPeriod_DataPastConfiguredMax(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 1994, Lower: 0, Upper: 30000, Count: 90},
		{Period: 1994, Lower: 30000, IsTail: true, Count: 3},
	}

	g, err := RemapPeriod(1994, brackets, config.GridConfig{Width: 5000, MaxValue: 10000})
	require.NoError(t, err)

	// Grid extends past MaxValue rather than dropping mass.
	assert.InDelta(t, 93.0, g.TotalMass(), 1e-9)
	assert.Equal(t, 30000.0, g.Cells[len(g.Cells)-1].Upper)
}

func TestRemapPeriod_MultipleTails(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 1994, Lower: 0, Upper: 10000, Count: 10},
		{Period: 1994, Lower: 10000, IsTail: true, Count: 1},
		{Period: 1994, Lower: 20000, IsTail: true, Count: 2},
	}

	_, err := RemapPeriod(1994, brackets, grid5000())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDegenerateBracket))
}

func TestRemapAll_SortedAndComplete(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 1995, Lower: 0, Upper: 10000, Count: 20},
		{Period: 1995, Lower: 10000, IsTail: true, Count: 2},
		{Period: 1994, Lower: 0, Upper: 10000, Count: 10},
		{Period: 1994, Lower: 10000, IsTail: true, Count: 1},
	}

	grids, err := RemapAll(context.Background(), slog.Default(), brackets, grid5000(), 4)
	require.NoError(t, err)

	require.Len(t, grids, 2)
	assert.Equal(t, 1994, grids[0].Period)
	assert.Equal(t, 1995, grids[1].Period)
	assert.InDelta(t, 11.0, grids[0].TotalMass(), 1e-9)
	assert.InDelta(t, 22.0, grids[1].TotalMass(), 1e-9)
}

func TestRemapAll_PropagatesPeriodError(t *testing.T) {
	brackets := []bracket.RealBracket{
		{Period: 1994, Lower: 0, Upper: 10000, Count: 10},
		{Period: 1994, Lower: 10000, IsTail: true, Count: 1},
		{Period: 1994, Lower: 20000, IsTail: true, Count: 1},
	}

	_, err := RemapAll(context.Background(), nil, brackets, grid5000(), 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDegenerateBracket))
}

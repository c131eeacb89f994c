// Package remap redistributes deflated income brackets onto a uniform
// fixed-width real-currency grid, carrying each period's open-ended bracket
// forward as a tail aggregate that stays exactly contiguous with the grid.
package remap

// GridCell is one fixed-width bin of the uniform grid with its reallocated
// count. Cells are emitted only when their accumulated count is positive.
type GridCell struct {
	Period int     `json:"period"`
	Lower  float64 `json:"lower_bound"`
	Upper  float64 `json:"upper_bound"`
	Count  float64 `json:"count"`
}

// Width returns the cell width. The last cell of a period is clipped to the
// finite data's true upper bound, so widths are not uniform at the edge.
func (c GridCell) Width() float64 {
	return c.Upper - c.Lower
}

// Midpoint returns the cell midpoint used as its representative value.
func (c GridCell) Midpoint() float64 {
	return (c.Lower + c.Upper) / 2
}

// TailCell aggregates a period's unbounded region. Its lower bound is the
// maximum upper bound among that period's grid cells, not the source
// bracket's own deflated lower bound, which closes the rounding gap the
// currency conversion would otherwise open.
type TailCell struct {
	Period int     `json:"period"`
	Lower  float64 `json:"lower_bound"`
	Count  float64 `json:"count"`
}

// PeriodGrid is one period's remapped distribution: ascending finite cells
// plus the tail aggregate. A period whose input had no finite brackets has no
// cells and all mass in the tail; that is a legal state, not an error.
type PeriodGrid struct {
	Period int
	Cells  []GridCell
	Tail   *TailCell
}

// FiniteMass returns the total count across finite grid cells.
func (g PeriodGrid) FiniteMass() float64 {
	var total float64
	for _, c := range g.Cells {
		total += c.Count
	}
	return total
}

// TotalMass returns finite mass plus tail mass.
func (g PeriodGrid) TotalMass() float64 {
	total := g.FiniteMass()
	if g.Tail != nil {
		total += g.Tail.Count
	}
	return total
}

// TailFraction returns the share of total mass held by the tail. It needs no
// fit and is always defined when the period has any mass at all.
func (g PeriodGrid) TailFraction() float64 {
	total := g.TotalMass()
	if total <= 0 || g.Tail == nil {
		return 0
	}
	return g.Tail.Count / total
}

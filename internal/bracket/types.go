// Package bracket defines the source income-bracket tables the pipeline
// consumes and the validation contract the upstream parser must satisfy.
package bracket

import "sort"

// Bracket is one row of the source table: a contiguous nominal-currency range
// with an observation count. The top bracket of each period is open-ended
// (HasUpper false); its Upper field is meaningless and must not be read.
type Bracket struct {
	Period   int     `json:"period"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper,omitempty"`
	HasUpper bool    `json:"has_upper"`
	Count    float64 `json:"count"`
}

// Width returns the nominal width of a finite bracket.
// Calling it on an open-ended bracket is a programming error.
func (b Bracket) Width() float64 {
	return b.Upper - b.Lower
}

// RealBracket is a bracket after deflation to reference-period currency.
// The absent upper bound stays absent; IsTail marks it explicitly instead of
// any sentinel value.
type RealBracket struct {
	Period int     `json:"period"`
	Lower  float64 `json:"lower_real"`
	Upper  float64 `json:"upper_real,omitempty"`
	IsTail bool    `json:"is_tail"`
	Count  float64 `json:"count"`
}

// Width returns the real width of a finite bracket.
func (b RealBracket) Width() float64 {
	return b.Upper - b.Lower
}

// Periods returns the sorted distinct periods present in the table.
func Periods(brackets []RealBracket) []int {
	seen := make(map[int]bool)
	var periods []int
	for _, b := range brackets {
		if !seen[b.Period] {
			seen[b.Period] = true
			periods = append(periods, b.Period)
		}
	}
	sort.Ints(periods)
	return periods
}

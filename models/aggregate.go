package models

import (
	"encoding/json"
	"strconv"
)

// Measure is a numeric aggregation result. Defined is false when the value
// was computed over zero rows (or is otherwise not meaningful); Value is then 0
// and must not be read.
type Measure struct {
	Value   float64
	Defined bool
}

// Defined wraps a computed value.
func Defined(v float64) Measure { return Measure{Value: v, Defined: true} }

// Undefined is the result of aggregating an empty group.
func Undefined() Measure { return Measure{} }

// MarshalJSON writes undefined measures as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Defined {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(m.Value, 'g', -1, 64)), nil
}

// UnmarshalJSON reads null as undefined.
func (m *Measure) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = Defined(v)
	return nil
}

// GroupStat is one row of a group-by result.
type GroupStat struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Value Measure `json:"value"`
}

// GroupCount is one row of a group-by/count result. Share is the fraction of
// the total (0..1), undefined when the total is zero.
type GroupCount struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share Measure `json:"share"`
}

// CrossTab is a two-way count table with row-normalised shares.
type CrossTab struct {
	Rows   []string    `json:"rows"`
	Cols   []string    `json:"cols"`
	Counts [][]int     `json:"counts"`
	Shares [][]Measure `json:"shares"`
}

// RowTotal returns the number of rows counted in row i.
func (c CrossTab) RowTotal(i int) int {
	n := 0
	for _, v := range c.Counts[i] {
		n += v
	}
	return n
}

// Grid is a 2-D pivot of measures with ordered row and column labels.
type Grid struct {
	RowLabels []string    `json:"rowLabels"`
	ColLabels []string    `json:"colLabels"`
	Cells     [][]Measure `json:"cells"`
}

// GridCell locates one defined cell of a Grid.
type GridCell struct {
	Row   string
	Col   string
	Value float64
}

// Max returns the largest defined cell; ok is false if no cell is defined.
// Ties resolve to the first cell in row-major order.
func (g Grid) Max() (GridCell, bool) {
	return g.extremum(func(a, b float64) bool { return a > b })
}

// Min returns the smallest defined cell; ok is false if no cell is defined.
func (g Grid) Min() (GridCell, bool) {
	return g.extremum(func(a, b float64) bool { return a < b })
}

func (g Grid) extremum(better func(a, b float64) bool) (GridCell, bool) {
	var best GridCell
	found := false
	for i, row := range g.Cells {
		for j, cell := range row {
			if !cell.Defined {
				continue
			}
			if !found || better(cell.Value, best.Value) {
				best = GridCell{Row: g.RowLabels[i], Col: g.ColLabels[j], Value: cell.Value}
				found = true
			}
		}
	}
	return best, found
}

// Summary holds descriptive statistics of a value series.
type Summary struct {
	Count  int     `json:"count"`
	Mean   Measure `json:"mean"`
	Median Measure `json:"median"`
	Min    Measure `json:"min"`
	Max    Measure `json:"max"`
	Std    Measure `json:"std"`
	Q1     Measure `json:"q1"`
	Q3     Measure `json:"q3"`
}

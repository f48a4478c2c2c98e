package services

import (
	"math"
	"sort"

	"passenger-insights/models"
)

// ============================================================================
// AGGREGATION ENGINE
// ============================================================================
// Every function is a pure read over the dataset snapshot. Group order is
// always the order supplied by the caller, never map iteration order.
// Empty groups yield models.Undefined(), never zero.
// ============================================================================

// KeyFunc maps a passenger to a category label.
type KeyFunc func(models.Passenger) string

// ValueFunc maps a passenger to a number.
type ValueFunc func(models.Passenger) float64

// Predicate selects passengers.
type Predicate func(models.Passenger) bool

// Common accessors.
var (
	ByClass    KeyFunc   = func(p models.Passenger) string { return string(p.Class) }
	BySex      KeyFunc   = func(p models.Passenger) string { return string(p.Sex) }
	ByAgeGroup KeyFunc   = func(p models.Passenger) string { return p.AgeGroup }
	ByOutcome  KeyFunc   = func(p models.Passenger) string { return outcomeLabel(p.Survived) }
	Age        ValueFunc = func(p models.Passenger) float64 { return p.Age }
	Fare       ValueFunc = func(p models.Passenger) float64 { return p.Fare }
	Survival   ValueFunc = func(p models.Passenger) float64 { return p.SurvivedValue() }
	All        Predicate = func(models.Passenger) bool { return true }
)

// Outcome labels in canonical order.
const (
	OutcomeDied     = "Died"
	OutcomeSurvived = "Survived"
)

// Outcomes lists the outcome labels in canonical order.
var Outcomes = []string{OutcomeDied, OutcomeSurvived}

func outcomeLabel(survived bool) string {
	if survived {
		return OutcomeSurvived
	}
	return OutcomeDied
}

// ClassLabels returns the canonical class order as strings.
func ClassLabels() []string {
	out := make([]string, len(models.Classes))
	for i, c := range models.Classes {
		out[i] = string(c)
	}
	return out
}

// SexLabels returns the canonical sex order as strings.
func SexLabels() []string {
	out := make([]string, len(models.Sexes))
	for i, s := range models.Sexes {
		out[i] = string(s)
	}
	return out
}

// And combines predicates.
func And(preds ...Predicate) Predicate {
	return func(p models.Passenger) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// IsClass selects one passenger class.
func IsClass(c models.Class) Predicate {
	return func(p models.Passenger) bool { return p.Class == c }
}

// IsSex selects one sex.
func IsSex(s models.Sex) Predicate {
	return func(p models.Passenger) bool { return p.Sex == s }
}

// DidSurvive selects passengers by outcome.
func DidSurvive(survived bool) Predicate {
	return func(p models.Passenger) bool { return p.Survived == survived }
}

// ============================================================================
// GROUPING
// ============================================================================

func indexOf(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, k := range order {
		idx[k] = i
	}
	return idx
}

// GroupMean averages val per category. Rows whose key is not in order are
// ignored.
func GroupMean(ds *models.Dataset, order []string, key KeyFunc, val ValueFunc) []models.GroupStat {
	idx := indexOf(order)
	sums := make([]float64, len(order))
	counts := make([]int, len(order))
	ds.Each(func(p models.Passenger) {
		if i, ok := idx[key(p)]; ok {
			sums[i] += val(p)
			counts[i]++
		}
	})

	out := make([]models.GroupStat, len(order))
	for i, label := range order {
		out[i] = models.GroupStat{Label: label, Count: counts[i], Value: meanOf(sums[i], counts[i])}
	}
	return out
}

// GroupCount counts rows per category with each category's share of all
// counted rows.
func GroupCount(ds *models.Dataset, order []string, key KeyFunc) []models.GroupCount {
	idx := indexOf(order)
	counts := make([]int, len(order))
	total := 0
	ds.Each(func(p models.Passenger) {
		if i, ok := idx[key(p)]; ok {
			counts[i]++
			total++
		}
	})

	out := make([]models.GroupCount, len(order))
	for i, label := range order {
		out[i] = models.GroupCount{Label: label, Count: counts[i], Share: Ratio(float64(counts[i]), float64(total))}
	}
	return out
}

// CrossTabulate counts rows per (row, col) pair and normalises each row to
// shares of its own total.
func CrossTabulate(ds *models.Dataset, rowOrder, colOrder []string, rowKey, colKey KeyFunc) models.CrossTab {
	ri, ci := indexOf(rowOrder), indexOf(colOrder)
	counts := make([][]int, len(rowOrder))
	for i := range counts {
		counts[i] = make([]int, len(colOrder))
	}
	ds.Each(func(p models.Passenger) {
		r, okR := ri[rowKey(p)]
		c, okC := ci[colKey(p)]
		if okR && okC {
			counts[r][c]++
		}
	})

	tab := models.CrossTab{Rows: rowOrder, Cols: colOrder, Counts: counts, Shares: make([][]models.Measure, len(rowOrder))}
	for r := range counts {
		total := tab.RowTotal(r)
		tab.Shares[r] = make([]models.Measure, len(colOrder))
		for c := range colOrder {
			tab.Shares[r][c] = Ratio(float64(counts[r][c]), float64(total))
		}
	}
	return tab
}

// Pivot averages val per (row, col) cell and reshapes into a grid that keeps
// the declared row and column order.
func Pivot(ds *models.Dataset, rowOrder, colOrder []string, rowKey, colKey KeyFunc, val ValueFunc) models.Grid {
	ri, ci := indexOf(rowOrder), indexOf(colOrder)
	sums := make([][]float64, len(rowOrder))
	counts := make([][]int, len(rowOrder))
	for i := range rowOrder {
		sums[i] = make([]float64, len(colOrder))
		counts[i] = make([]int, len(colOrder))
	}
	ds.Each(func(p models.Passenger) {
		r, okR := ri[rowKey(p)]
		c, okC := ci[colKey(p)]
		if okR && okC {
			sums[r][c] += val(p)
			counts[r][c]++
		}
	})

	grid := models.Grid{RowLabels: rowOrder, ColLabels: colOrder, Cells: make([][]models.Measure, len(rowOrder))}
	for r := range rowOrder {
		grid.Cells[r] = make([]models.Measure, len(colOrder))
		for c := range colOrder {
			grid.Cells[r][c] = meanOf(sums[r][c], counts[r][c])
		}
	}
	return grid
}

// ============================================================================
// SCALAR REDUCTIONS
// ============================================================================

// Extract returns val for every passenger matching pred, in dataset order.
func Extract(ds *models.Dataset, val ValueFunc, pred Predicate) []float64 {
	var out []float64
	ds.Each(func(p models.Passenger) {
		if pred(p) {
			out = append(out, val(p))
		}
	})
	return out
}

// Count returns the number of passengers matching pred.
func Count(ds *models.Dataset, pred Predicate) int {
	n := 0
	ds.Each(func(p models.Passenger) {
		if pred(p) {
			n++
		}
	})
	return n
}

// MeanWhere averages val over passengers matching pred.
func MeanWhere(ds *models.Dataset, val ValueFunc, pred Predicate) models.Measure {
	var sum float64
	n := 0
	ds.Each(func(p models.Passenger) {
		if pred(p) {
			sum += val(p)
			n++
		}
	})
	return meanOf(sum, n)
}

// SurvivalRate is the share of passengers matching pred who survived.
func SurvivalRate(ds *models.Dataset, pred Predicate) models.Measure {
	return MeanWhere(ds, Survival, pred)
}

// Correlate returns the Pearson correlation of x and y over all passengers.
// It is undefined for fewer than two rows or a constant column.
func Correlate(ds *models.Dataset, x, y ValueFunc) models.Measure {
	n := ds.Len()
	if n < 2 {
		return models.Undefined()
	}
	var sx, sy float64
	ds.Each(func(p models.Passenger) {
		sx += x(p)
		sy += y(p)
	})
	mx, my := sx/float64(n), sy/float64(n)

	var cov, vx, vy float64
	ds.Each(func(p models.Passenger) {
		dx, dy := x(p)-mx, y(p)-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	})
	if vx == 0 || vy == 0 {
		return models.Undefined()
	}
	return models.Defined(cov / math.Sqrt(vx*vy))
}

// Describe computes descriptive statistics. Std is the sample standard
// deviation; quantiles use linear interpolation between order statistics.
func Describe(values []float64) models.Summary {
	s := models.Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))
	s.Mean = models.Defined(mean)
	s.Min = models.Defined(sorted[0])
	s.Max = models.Defined(sorted[len(sorted)-1])
	s.Median = models.Defined(quantile(sorted, 0.5))
	s.Q1 = models.Defined(quantile(sorted, 0.25))
	s.Q3 = models.Defined(quantile(sorted, 0.75))

	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			ss += (v - mean) * (v - mean)
		}
		s.Std = models.Defined(math.Sqrt(ss / float64(len(sorted)-1)))
	}
	return s
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Ratio divides at full precision; a zero denominator is undefined.
func Ratio(num, den float64) models.Measure {
	if den == 0 {
		return models.Undefined()
	}
	return models.Defined(num / den)
}

// RatioOf divides two measures. It returns models.ErrDivisionUndefined when
// either side is undefined or the denominator is zero.
func RatioOf(num, den models.Measure) (float64, error) {
	if !num.Defined || !den.Defined || den.Value == 0 {
		return 0, models.ErrDivisionUndefined
	}
	return num.Value / den.Value, nil
}

// Diff subtracts two measures; undefined if either side is.
func Diff(a, b models.Measure) models.Measure {
	if !a.Defined || !b.Defined {
		return models.Undefined()
	}
	return models.Defined(a.Value - b.Value)
}

// Spread is max-min over the defined values of groups.
func Spread(groups []models.GroupStat) models.Measure {
	var lo, hi float64
	found := false
	for _, g := range groups {
		if !g.Value.Defined {
			continue
		}
		if !found || g.Value.Value < lo {
			lo = g.Value.Value
		}
		if !found || g.Value.Value > hi {
			hi = g.Value.Value
		}
		found = true
	}
	if !found {
		return models.Undefined()
	}
	return models.Defined(hi - lo)
}

// Find returns the group with the given label.
func Find(groups []models.GroupStat, label string) models.GroupStat {
	for _, g := range groups {
		if g.Label == label {
			return g
		}
	}
	return models.GroupStat{Label: label}
}

func meanOf(sum float64, n int) models.Measure {
	if n == 0 {
		return models.Undefined()
	}
	return models.Defined(sum / float64(n))
}

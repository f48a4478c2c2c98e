package services

import (
	"fmt"
	"math"

	"passenger-insights/models"
)

// ============================================================================
// CHART BUILDER — aggregation output → ChartSpec
// ============================================================================
// Each archetype declares the one input shape it accepts. BuildChart refuses
// anything else with a *models.ShapeMismatchError; with correctly registered
// insights that never happens at runtime.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#e74c3c", "#27ae60", "#3498db", "#8b4513", "#ff8c00",
	"#32cd32", "#e91e63", "#2196f3", "#9b59b6", "#34495e",
}

var requiredShapes = map[models.Archetype]models.Shape{
	models.ArchetypeBar:       models.ShapePairs,
	models.ArchetypePie:       models.ShapePairs,
	models.ArchetypeHistogram: models.ShapeValues,
	models.ArchetypeBox:       models.ShapeValues,
	models.ArchetypeViolin:    models.ShapeValues,
	models.ArchetypeScatter:   models.ShapeXY,
	models.ArchetypeHeatmap:   models.ShapeGrid,
	models.ArchetypeComposite: models.ShapePanels,
}

// RequiredShape returns the input shape an archetype accepts.
func RequiredShape(a models.Archetype) (models.Shape, bool) {
	s, ok := requiredShapes[a]
	return s, ok
}

// ChartMeta is the static part of a chart: titles, axes and binning.
type ChartMeta struct {
	Title  string
	XAxis  string
	YAxis  string
	Bins   int
	Colors []string

	// ValueText formats bar values for on-chart labels. Nil leaves them blank.
	ValueText func(models.Measure) string
}

// Pair is one category/value result.
type Pair struct {
	Label string
	Value models.Measure
}

// PairSeries is an ordered list of category/value results.
type PairSeries struct {
	Name  string
	Pairs []Pair
}

// ValueSeries is a raw column extract.
type ValueSeries struct {
	Name   string
	Values []float64
}

// XYSeries is a pair of aligned raw columns.
type XYSeries struct {
	Name string
	X    []float64
	Y    []float64
}

// ChartInput carries exactly one aggregation shape.
type ChartInput struct {
	Pairs  []PairSeries
	Values []ValueSeries
	XY     []XYSeries
	Grid   *models.Grid
	Panels []models.Panel
}

// Shape reports which shape the input carries.
func (in ChartInput) Shape() models.Shape {
	var found []models.Shape
	if len(in.Pairs) > 0 {
		found = append(found, models.ShapePairs)
	}
	if len(in.Values) > 0 {
		found = append(found, models.ShapeValues)
	}
	if len(in.XY) > 0 {
		found = append(found, models.ShapeXY)
	}
	if in.Grid != nil {
		found = append(found, models.ShapeGrid)
	}
	if len(in.Panels) > 0 {
		found = append(found, models.ShapePanels)
	}
	switch len(found) {
	case 0:
		return models.ShapeNone
	case 1:
		return found[0]
	}
	return models.ShapeMixed
}

// PairsFromGroups adapts group-by results to a pair series.
func PairsFromGroups(name string, groups []models.GroupStat) PairSeries {
	ps := PairSeries{Name: name, Pairs: make([]Pair, len(groups))}
	for i, g := range groups {
		ps.Pairs[i] = Pair{Label: g.Label, Value: g.Value}
	}
	return ps
}

// PairsFromCounts adapts group-by/count results to a pair series of counts.
func PairsFromCounts(name string, counts []models.GroupCount) PairSeries {
	ps := PairSeries{Name: name, Pairs: make([]Pair, len(counts))}
	for i, c := range counts {
		ps.Pairs[i] = Pair{Label: c.Label, Value: models.Defined(float64(c.Count))}
	}
	return ps
}

// BuildChart validates in against the archetype's shape and builds the ChartSpec.
func BuildChart(a models.Archetype, meta ChartMeta, in ChartInput) (*models.ChartSpec, error) {
	want, ok := requiredShapes[a]
	if !ok {
		return nil, &models.ShapeMismatchError{Archetype: a, Want: models.ShapeNone, Got: in.Shape()}
	}
	if got := in.Shape(); got != want {
		return nil, &models.ShapeMismatchError{Archetype: a, Want: want, Got: got}
	}

	spec := &models.ChartSpec{
		Archetype: a,
		Title:     meta.Title,
		XAxis:     meta.XAxis,
		YAxis:     meta.YAxis,
	}

	switch a {
	case models.ArchetypeBar:
		spec.Series = pairSeries(in.Pairs, meta)
	case models.ArchetypePie:
		spec.Series = pieSeries(in.Pairs)
	case models.ArchetypeHistogram:
		spec.Series = histogramSeries(in.Values, binsOr(meta.Bins, 10), false)
	case models.ArchetypeViolin:
		spec.Series = histogramSeries(in.Values, binsOr(meta.Bins, 20), true)
	case models.ArchetypeBox:
		spec.Series = boxSeries(in.Values)
	case models.ArchetypeScatter:
		series, err := scatterSeries(in.XY)
		if err != nil {
			return nil, err
		}
		spec.Series = series
	case models.ArchetypeHeatmap:
		spec.Grid = copyGrid(in.Grid)
	case models.ArchetypeComposite:
		spec.Panels = append([]models.Panel(nil), in.Panels...)
	}

	assignColors(spec.Series, meta.Colors)
	spec.ShowLegend = len(spec.Series) > 1
	return spec, nil
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func pairSeries(in []PairSeries, meta ChartMeta) []models.ChartSeries {
	out := make([]models.ChartSeries, 0, len(in))
	for _, ps := range in {
		points := make([]models.ChartPoint, len(ps.Pairs))
		for i, p := range ps.Pairs {
			pt := models.ChartPoint{Label: p.Label, X: float64(i)}
			if p.Value.Defined {
				pt.Y = p.Value.Value
			} else {
				pt.Undefined = true
			}
			if meta.ValueText != nil {
				pt.Text = meta.ValueText(p.Value)
			}
			points[i] = pt
		}
		out = append(out, models.ChartSeries{Name: ps.Name, Points: points})
	}
	return out
}

func pieSeries(in []PairSeries) []models.ChartSeries {
	out := make([]models.ChartSeries, 0, len(in))
	for _, ps := range in {
		var total float64
		for _, p := range ps.Pairs {
			if p.Value.Defined {
				total += p.Value.Value
			}
		}
		points := make([]models.ChartPoint, len(ps.Pairs))
		for i, p := range ps.Pairs {
			pt := models.ChartPoint{Label: p.Label, X: float64(i)}
			if p.Value.Defined {
				pt.Y = p.Value.Value
				pt.Text = FormatPercent(Ratio(p.Value.Value, total))
			} else {
				pt.Undefined = true
				pt.Text = NotApplicable
			}
			points[i] = pt
		}
		out = append(out, models.ChartSeries{Name: ps.Name, Points: points})
	}
	return out
}

// histogramSeries bins every series over the shared range of all values so
// overlaid series line up. density switches counts to probability density.
func histogramSeries(in []ValueSeries, bins int, density bool) []models.ChartSeries {
	lo, hi, ok := valueRange(in)
	out := make([]models.ChartSeries, 0, len(in))
	for _, vs := range in {
		s := models.ChartSeries{Name: vs.Name, Points: []models.ChartPoint{}}
		if ok && len(vs.Values) > 0 {
			s.Points = binValues(vs.Values, lo, hi, bins, density)
		}
		out = append(out, s)
	}
	return out
}

func valueRange(in []ValueSeries) (lo, hi float64, ok bool) {
	for _, vs := range in {
		for _, v := range vs.Values {
			if !ok || v < lo {
				lo = v
			}
			if !ok || v > hi {
				hi = v
			}
			ok = true
		}
	}
	return lo, hi, ok
}

func binValues(values []float64, lo, hi float64, bins int, density bool) []models.ChartPoint {
	width := (hi - lo) / float64(bins)
	if width == 0 {
		width = 1
	}
	counts := make([]int, bins)
	for _, v := range values {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}

	points := make([]models.ChartPoint, bins)
	for i, c := range counts {
		start := lo + float64(i)*width
		pt := models.ChartPoint{
			Label: fmt.Sprintf("%.1f-%.1f", start, start+width),
			X:     start,
			Y:     float64(c),
		}
		if density {
			pt.X = start + width/2
			pt.Y = float64(c) / (float64(len(values)) * width)
		}
		points[i] = pt
	}
	return points
}

var boxLabels = []string{"min", "q1", "median", "q3", "max"}

func boxSeries(in []ValueSeries) []models.ChartSeries {
	out := make([]models.ChartSeries, 0, len(in))
	for _, vs := range in {
		s := Describe(vs.Values)
		stats := []models.Measure{s.Min, s.Q1, s.Median, s.Q3, s.Max}
		points := make([]models.ChartPoint, len(stats))
		for i, m := range stats {
			points[i] = models.ChartPoint{Label: boxLabels[i], X: float64(i), Y: m.Value, Undefined: !m.Defined}
		}
		out = append(out, models.ChartSeries{Name: vs.Name, Points: points})
	}
	return out
}

func scatterSeries(in []XYSeries) ([]models.ChartSeries, error) {
	out := make([]models.ChartSeries, 0, len(in))
	for _, xy := range in {
		if len(xy.X) != len(xy.Y) {
			return nil, &models.ShapeMismatchError{
				Archetype: models.ArchetypeScatter,
				Want:      models.ShapeXY,
				Got:       models.Shape(fmt.Sprintf("x/y series %q with %d x and %d y values", xy.Name, len(xy.X), len(xy.Y))),
			}
		}
		points := make([]models.ChartPoint, len(xy.X))
		for i := range xy.X {
			points[i] = models.ChartPoint{X: xy.X[i], Y: xy.Y[i]}
		}
		out = append(out, models.ChartSeries{Name: xy.Name, Points: points})
	}
	return out, nil
}

func assignColors(series []models.ChartSeries, palette []string) {
	if len(palette) == 0 {
		palette = defaultColors
	}
	for i := range series {
		series[i].Color = palette[i%len(palette)]
	}
}

func copyGrid(g *models.Grid) *models.Grid {
	out := &models.Grid{
		RowLabels: append([]string(nil), g.RowLabels...),
		ColLabels: append([]string(nil), g.ColLabels...),
		Cells:     make([][]models.Measure, len(g.Cells)),
	}
	for i, row := range g.Cells {
		out.Cells[i] = append([]models.Measure(nil), row...)
	}
	return out
}

func binsOr(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}

// SeriesTotal sums the defined Y values of a series.
func SeriesTotal(s models.ChartSeries) float64 {
	var total float64
	for _, p := range s.Points {
		if !p.Undefined && !math.IsNaN(p.Y) {
			total += p.Y
		}
	}
	return total
}

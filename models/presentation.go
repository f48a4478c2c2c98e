package models

// Archetype is the kind of chart a specification describes.
type Archetype string

const (
	ArchetypeBar       Archetype = "bar"
	ArchetypeHistogram Archetype = "histogram"
	ArchetypeBox       Archetype = "box"
	ArchetypeScatter   Archetype = "scatter"
	ArchetypeViolin    Archetype = "violin"
	ArchetypeHeatmap   Archetype = "heatmap"
	ArchetypeComposite Archetype = "composite"
	ArchetypePie       Archetype = "pie"
)

// Shape is the form of aggregation output a chart archetype consumes.
type Shape string

const (
	ShapeNone   Shape = "none"
	ShapeMixed  Shape = "mixed"
	ShapePairs  Shape = "category/value pairs"
	ShapeValues Shape = "raw value series"
	ShapeXY     Shape = "x/y series"
	ShapeGrid   Shape = "2-D grid"
	ShapePanels Shape = "independent panels"
)

// ChartSpec is a render-ready chart description.
type ChartSpec struct {
	Archetype   Archetype     `json:"archetype"`
	Title       string        `json:"title"`
	XAxis       string        `json:"xAxis,omitempty"`
	YAxis       string        `json:"yAxis,omitempty"`
	Series      []ChartSeries `json:"series,omitempty"`
	Grid        *Grid         `json:"grid,omitempty"`
	Panels      []Panel       `json:"panels,omitempty"`
	Annotations []Annotation  `json:"annotations,omitempty"`
	ShowLegend  bool          `json:"showLegend"`
}

// ChartSeries is one named, ordered data series.
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
	Color  string       `json:"color,omitempty"`
}

// ChartPoint is a category/value pair (Label, Y) or an x/y pair (X, Y).
// Undefined marks a category whose aggregation had no rows.
type ChartPoint struct {
	Label     string  `json:"label,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Text      string  `json:"text,omitempty"`
	Undefined bool    `json:"undefined,omitempty"`
}

// Annotation is a reference line drawn across a chart.
type Annotation struct {
	Axis  string  `json:"axis"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// Panel is one sub-chart of a composite. A failed panel keeps its title and
// carries the reason instead of a chart.
type Panel struct {
	Title  string     `json:"title"`
	Chart  *ChartSpec `json:"chart,omitempty"`
	Failed bool       `json:"failed,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

// Narrative is the fixed interpretive text for an insight.
type Narrative struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Metric is one labeled, formatted statistic.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// StatsBlock is the ordered statistics panel. Table is only populated by the
// dataset overview.
type StatsBlock struct {
	Metrics []Metric `json:"metrics"`
	Table   []Metric `json:"table,omitempty"`
}

// Value returns the formatted value for label, or "" if absent.
func (s StatsBlock) Value(label string) string {
	for _, m := range s.Metrics {
		if m.Label == label {
			return m.Value
		}
	}
	for _, m := range s.Table {
		if m.Label == label {
			return m.Value
		}
	}
	return ""
}

// Presentation is the chart/narrative/stats triple returned per request.
// Chart is nil only when ChartError says why.
type Presentation struct {
	Key        string     `json:"key"`
	Label      string     `json:"label"`
	Chart      *ChartSpec `json:"chart,omitempty"`
	ChartError string     `json:"chartError,omitempty"`
	Narrative  Narrative  `json:"narrative"`
	Stats      StatsBlock `json:"stats"`
}

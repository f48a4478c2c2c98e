package export

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"passenger-insights/models"
	"passenger-insights/utils"
)

// PNGRenderer draws chart specifications to PNG files.
type PNGRenderer struct {
	dir    string
	width  vg.Length
	height vg.Length
	logger *utils.Logger
}

// NewPNGRenderer writes images of widthIn x heightIn inches into dir.
func NewPNGRenderer(dir string, widthIn, heightIn float64, logger *utils.Logger) *PNGRenderer {
	return &PNGRenderer{
		dir:    dir,
		width:  vg.Length(widthIn) * vg.Inch,
		height: vg.Length(heightIn) * vg.Inch,
		logger: logger,
	}
}

// Render writes <key>.png, or one <key>_panelN.png per rendered panel of a
// composite, and returns the written paths.
func (r *PNGRenderer) Render(key string, spec *models.ChartSpec) ([]string, error) {
	if spec == nil {
		return nil, fmt.Errorf("png: %s: no chart", key)
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("png: create output dir: %w", err)
	}

	if spec.Archetype != models.ArchetypeComposite {
		path := filepath.Join(r.dir, key+".png")
		if err := r.save(spec, path); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	var paths []string
	for i, panel := range spec.Panels {
		if panel.Failed || panel.Chart == nil {
			r.logger.Warn("[export] %s: skipping failed panel %q", key, panel.Title)
			continue
		}
		path := filepath.Join(r.dir, fmt.Sprintf("%s_panel%d.png", key, i+1))
		if err := r.save(panel.Chart, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *PNGRenderer) save(spec *models.ChartSpec, path string) error {
	p, err := buildPlot(spec)
	if err != nil {
		return fmt.Errorf("png: %s: %w", spec.Title, err)
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("png: save %q: %w", path, err)
	}
	r.logger.Debug("[export] Wrote %s", path)
	return nil
}

func buildPlot(spec *models.ChartSpec) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = spec.XAxis
	p.Y.Label.Text = spec.YAxis

	var err error
	switch spec.Archetype {
	case models.ArchetypeBar, models.ArchetypePie:
		err = addBars(p, spec.Series)
	case models.ArchetypeHistogram, models.ArchetypeViolin:
		err = addLines(p, spec.Series)
	case models.ArchetypeBox:
		err = addBoxes(p, spec.Series)
	case models.ArchetypeScatter:
		err = addScatter(p, spec.Series)
	case models.ArchetypeHeatmap:
		err = addHeatmap(p, spec.Grid)
	default:
		err = fmt.Errorf("cannot draw %s chart", spec.Archetype)
	}
	if err != nil {
		return nil, err
	}

	for _, a := range spec.Annotations {
		if a.Axis == "x" {
			addVLine(p, a)
		}
	}
	if spec.ShowLegend {
		p.Legend.Top = true
	}
	return p, nil
}

// ============================================================================
// PLOTTERS
// ============================================================================

func addBars(p *plot.Plot, series []models.ChartSeries) error {
	if len(series) == 0 {
		return nil
	}
	width := vg.Points(40 / float64(len(series)))
	var labels []string
	for i, s := range series {
		values := make(plotter.Values, len(s.Points))
		for j, pt := range s.Points {
			values[j] = pt.Y
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.Color = parseHex(s.Color)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(i)*width - vg.Length(len(series)-1)*width/2
		p.Add(bars)
		if len(series) > 1 {
			p.Legend.Add(s.Name, bars)
		}
		if i == 0 {
			for _, pt := range s.Points {
				labels = append(labels, pt.Label)
			}
		}

		if err := addPointText(p, s.Points, func(j int) float64 { return float64(j) }); err != nil {
			return err
		}
	}
	p.NominalX(labels...)
	p.Y.Min = 0
	return nil
}

func addPointText(p *plot.Plot, points []models.ChartPoint, x func(int) float64) error {
	var xys plotter.XYs
	var texts []string
	for j, pt := range points {
		if pt.Text == "" {
			continue
		}
		xys = append(xys, plotter.XY{X: x(j), Y: pt.Y})
		texts = append(texts, pt.Text)
	}
	if len(xys) == 0 {
		return nil
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
	}
	p.Add(labels)
	return nil
}

func addLines(p *plot.Plot, series []models.ChartSeries) error {
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		line, err := plotter.NewLine(pointsXY(s.Points))
		if err != nil {
			return err
		}
		line.Color = parseHex(s.Color)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	p.Add(plotter.NewGrid())
	return nil
}

// addBoxes draws each five-number summary as a whisker line with glyphs.
func addBoxes(p *plot.Plot, series []models.ChartSeries) error {
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
		var xys plotter.XYs
		for _, pt := range s.Points {
			if !pt.Undefined {
				xys = append(xys, plotter.XY{X: float64(i), Y: pt.Y})
			}
		}
		if len(xys) == 0 {
			continue
		}
		whisker, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		whisker.Color = parseHex(s.Color)
		glyphs, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		glyphs.GlyphStyle.Color = parseHex(s.Color)
		glyphs.GlyphStyle.Shape = draw.BoxGlyph{}
		glyphs.GlyphStyle.Radius = vg.Points(5)
		p.Add(whisker, glyphs)
	}
	p.NominalX(names...)
	p.Add(plotter.NewGrid())
	return nil
}

func addScatter(p *plot.Plot, series []models.ChartSeries) error {
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(pointsXY(s.Points))
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = parseHex(s.Color)
		scatter.GlyphStyle.Radius = vg.Points(2.5)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add(s.Name, scatter)
	}
	p.Add(plotter.NewGrid())
	return nil
}

// gridXYZ adapts a models.Grid to plotter.GridXYZ: columns run along X,
// rows along Y.
type gridXYZ struct {
	g *models.Grid
}

func (g gridXYZ) Dims() (c, r int) { return len(g.g.ColLabels), len(g.g.RowLabels) }
func (g gridXYZ) X(c int) float64  { return float64(c) }
func (g gridXYZ) Y(r int) float64  { return float64(r) }
func (g gridXYZ) Z(c, r int) float64 {
	cell := g.g.Cells[r][c]
	if !cell.Defined {
		return math.NaN()
	}
	return cell.Value
}

func addHeatmap(p *plot.Plot, grid *models.Grid) error {
	if grid == nil || len(grid.RowLabels) == 0 || len(grid.ColLabels) == 0 {
		return fmt.Errorf("empty grid")
	}
	hm := plotter.NewHeatMap(gridXYZ{g: grid}, palette.Heat(12, 1))
	hm.NaN = color.Gray{Y: 200}
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	var xys plotter.XYs
	var texts []string
	for r := range grid.RowLabels {
		for c := range grid.ColLabels {
			cell := grid.Cells[r][c]
			text := "N/A"
			if cell.Defined {
				text = strconv.FormatFloat(cell.Value, 'f', 2, 64)
			}
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			texts = append(texts, text)
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return err
	}
	p.Add(labels)
	p.NominalX(grid.ColLabels...)
	p.NominalY(grid.RowLabels...)
	return nil
}

func addVLine(p *plot.Plot, a models.Annotation) {
	p.Y.Min = math.Min(p.Y.Min, 0)
	line, err := plotter.NewLine(plotter.XYs{{X: a.Value, Y: p.Y.Min}, {X: a.Value, Y: p.Y.Max}})
	if err != nil {
		return
	}
	line.Color = color.RGBA{R: 255, A: 255}
	line.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(line)
	p.Legend.Add(a.Text, line)
}

func pointsXY(points []models.ChartPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}

// parseHex turns "#rrggbb" into a color; anything else is black.
func parseHex(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

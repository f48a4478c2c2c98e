package services

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"passenger-insights/models"
	"passenger-insights/utils"
)

// InsightService resolves insight keys against one prepared dataset.
type InsightService struct {
	logger   *utils.Logger
	registry *Registry
	dataset  *models.Dataset
}

func NewInsightService(logger *utils.Logger, registry *Registry, dataset *models.Dataset) *InsightService {
	return &InsightService{logger: logger, registry: registry, dataset: dataset}
}

// Options is the published selector list.
func (s *InsightService) Options() []Option {
	return s.registry.Options()
}

// Keys lists registered keys in selector order.
func (s *InsightService) Keys() []string {
	return s.registry.Keys()
}

// Generate builds the presentation triple for key. Unknown keys return
// *models.UnknownInsightError and nothing is computed.
func (s *InsightService) Generate(key string) (*models.Presentation, error) {
	def, err := s.registry.Resolve(key)
	if err != nil {
		s.logger.Warn("[insights] %v", err)
		return nil, err
	}
	p := Assemble(def, s.dataset)
	if p.ChartError != "" {
		s.logger.Error("[insights] %s: chart failed: %s", key, p.ChartError)
	} else if p.Chart.Archetype == models.ArchetypeComposite {
		for _, panel := range p.Chart.Panels {
			if panel.Failed {
				s.logger.Warn("[insights] %s: panel %q not rendered: %s", key, panel.Title, panel.Reason)
			}
		}
	}
	s.logger.Debug("[insights] %s: %d metrics", key, len(p.Stats.Metrics))
	return p, nil
}

// WriteJSON writes p as indented JSON. Output is byte-identical for the same
// key and dataset.
func WriteJSON(w io.Writer, p *models.Presentation) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("insights: encode %s: %w", p.Key, err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Print renders p as a terminal report.
func (s *InsightService) Print(w io.Writer, p *models.Presentation) {
	sep := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 %s\033[0m\n", p.Label)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Narrative
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", p.Narrative.Heading)
	fmt.Fprintf(w, "  %s\n", thin)
	for _, line := range wrap(p.Narrative.Body, 62) {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)

	// Chart
	if p.Chart == nil {
		fmt.Fprintf(w, "\033[1;33m  Chart\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  \033[1;31mChart unavailable: %s\033[0m\n\n", p.ChartError)
	} else {
		printChart(w, p.Chart, thin)
	}

	// Key Statistics
	fmt.Fprintf(w, "\033[1;33m  Key Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, m := range p.Stats.Metrics {
		fmt.Fprintf(w, "  %-32s \033[1m%s\033[0m\n", m.Label, m.Value)
	}
	if len(p.Stats.Table) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "\033[1;33m  Key Dataset Statistics\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, m := range p.Stats.Table {
			fmt.Fprintf(w, "  %-32s %s\n", m.Label, m.Value)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func printChart(w io.Writer, c *models.ChartSpec, thin string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m (%s)\n", c.Title, c.Archetype)
	fmt.Fprintf(w, "  %s\n", thin)

	switch c.Archetype {
	case models.ArchetypeBar, models.ArchetypePie:
		for _, s := range c.Series {
			max := 0.0
			for _, pt := range s.Points {
				if pt.Y > max {
					max = pt.Y
				}
			}
			for _, pt := range s.Points {
				text := pt.Text
				if text == "" {
					text = FormatDecimal(pointMeasure(pt), 2)
				}
				fmt.Fprintf(w, "  %-22s %s %s\n", truncate(pt.Label, 20), bar(pt.Y, max, 30), text)
			}
		}
	case models.ArchetypeHeatmap:
		fmt.Fprintf(w, "  %-14s", "")
		for _, col := range c.Grid.ColLabels {
			fmt.Fprintf(w, "%10s", col)
		}
		fmt.Fprintln(w)
		for r, row := range c.Grid.RowLabels {
			fmt.Fprintf(w, "  %-14s", row)
			for _, cell := range c.Grid.Cells[r] {
				fmt.Fprintf(w, "%10s", FormatPercent(cell))
			}
			fmt.Fprintln(w)
		}
	case models.ArchetypeComposite:
		for i, panel := range c.Panels {
			if panel.Failed {
				fmt.Fprintf(w, "  %d. %-40s \033[1;31mnot available\033[0m (%s)\n", i+1, panel.Title, panel.Reason)
				continue
			}
			fmt.Fprintf(w, "  %d. %-40s %s, %d series\n", i+1, panel.Title, panel.Chart.Archetype, len(panel.Chart.Series))
		}
	default:
		for _, s := range c.Series {
			fmt.Fprintf(w, "  %-22s %s points\n", s.Name, FormatInt(len(s.Points)))
		}
	}
	for _, a := range c.Annotations {
		fmt.Fprintf(w, "  ↳ %s\n", a.Text)
	}
	fmt.Fprintln(w)
}

func pointMeasure(pt models.ChartPoint) models.Measure {
	if pt.Undefined {
		return models.Undefined()
	}
	return models.Defined(pt.Y)
}

func bar(v, max float64, width int) string {
	if max <= 0 || v <= 0 {
		return strings.Repeat(" ", width)
	}
	n := int(v / max * float64(width))
	return strings.Repeat("█", n) + strings.Repeat(" ", width-n)
}

func wrap(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		if line != "" && len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// truncate shortens s to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"passenger-insights/models"
	"passenger-insights/utils"
)

const (
	sheetStats    = "Stats"
	sheetChart    = "Chart"
	sheetOverview = "Overview"
)

// XLSXExporter writes a presentation's stats and chart data to a workbook.
type XLSXExporter struct {
	dir    string
	logger *utils.Logger
}

func NewXLSXExporter(dir string, logger *utils.Logger) *XLSXExporter {
	return &XLSXExporter{dir: dir, logger: logger}
}

// Export writes <key>.xlsx and returns its path.
func (x *XLSXExporter) Export(p *models.Presentation) (string, error) {
	if err := os.MkdirAll(x.dir, 0755); err != nil {
		return "", fmt.Errorf("xlsx: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetStats); err != nil {
		return "", fmt.Errorf("xlsx: %w", err)
	}
	if err := writeMetrics(f, sheetStats, p.Label, p.Stats.Metrics); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(sheetChart); err != nil {
		return "", fmt.Errorf("xlsx: %w", err)
	}
	if err := writeChart(f, p); err != nil {
		return "", err
	}

	if len(p.Stats.Table) > 0 {
		if _, err := f.NewSheet(sheetOverview); err != nil {
			return "", fmt.Errorf("xlsx: %w", err)
		}
		if err := writeMetrics(f, sheetOverview, "Key Dataset Statistics", p.Stats.Table); err != nil {
			return "", err
		}
	}

	path := filepath.Join(x.dir, p.Key+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	x.logger.Debug("[export] Wrote %s", path)
	return path, nil
}

func writeMetrics(f *excelize.File, sheet, title string, metrics []models.Metric) error {
	rows := [][]interface{}{{title}, {"Metric", "Value"}}
	for _, m := range metrics {
		rows = append(rows, []interface{}{m.Label, m.Value})
	}
	if err := setRows(f, sheet, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "B", 36)
}

// writeChart lays out the chart data: one block per series, or the grid, or
// one block per rendered panel.
func writeChart(f *excelize.File, p *models.Presentation) error {
	if p.Chart == nil {
		return setRows(f, sheetChart, [][]interface{}{{"Chart unavailable"}, {p.ChartError}})
	}

	rows := [][]interface{}{{p.Chart.Title}, {"Archetype", string(p.Chart.Archetype)}}
	rows = append(rows, chartRows(p.Chart)...)
	for i, panel := range p.Chart.Panels {
		rows = append(rows, []interface{}{}, []interface{}{fmt.Sprintf("Panel %d", i+1), panel.Title})
		if panel.Failed {
			rows = append(rows, []interface{}{"Not available", panel.Reason})
			continue
		}
		rows = append(rows, chartRows(panel.Chart)...)
	}
	if err := setRows(f, sheetChart, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetChart, "A", "A", 28)
}

func chartRows(c *models.ChartSpec) [][]interface{} {
	var rows [][]interface{}
	for _, s := range c.Series {
		rows = append(rows, []interface{}{}, []interface{}{"Series", s.Name}, []interface{}{"Label", "X", "Y", "Text"})
		for _, pt := range s.Points {
			var y interface{} = pt.Y
			if pt.Undefined {
				y = "N/A"
			}
			rows = append(rows, []interface{}{pt.Label, pt.X, y, pt.Text})
		}
	}
	if g := c.Grid; g != nil {
		header := []interface{}{""}
		for _, col := range g.ColLabels {
			header = append(header, col)
		}
		rows = append(rows, []interface{}{}, header)
		for r, label := range g.RowLabels {
			row := []interface{}{label}
			for _, cell := range g.Cells[r] {
				if cell.Defined {
					row = append(row, cell.Value)
				} else {
					row = append(row, "N/A")
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

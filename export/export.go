// Package export writes presentations to files: PNG charts, XLSX workbooks,
// HTML pages and PDF reports.
package export

import (
	"passenger-insights/models"
	"passenger-insights/utils"
)

// Formats selects which artifacts Export writes.
type Formats struct {
	PNG  bool
	XLSX bool
	HTML bool
	PDF  bool
}

// Exporter bundles the individual writers for one output directory.
type Exporter struct {
	dir    string
	png    *PNGRenderer
	xlsx   *XLSXExporter
	pdf    *PDFExporter
	logger *utils.Logger
}

func NewExporter(dir string, png *PNGRenderer, xlsx *XLSXExporter, pdf *PDFExporter, logger *utils.Logger) *Exporter {
	return &Exporter{dir: dir, png: png, xlsx: xlsx, pdf: pdf, logger: logger}
}

// Export writes the requested formats for p and returns every path written.
// PDF implies HTML, and HTML embeds the PNG charts.
func (e *Exporter) Export(p *models.Presentation, f Formats) ([]string, error) {
	if f.PDF {
		f.HTML = true
	}

	var written []string
	var images []string
	if (f.PNG || f.HTML) && p.Chart != nil {
		paths, err := e.png.Render(p.Key, p.Chart)
		if err != nil {
			return written, err
		}
		images = paths
		if f.PNG {
			written = append(written, paths...)
		}
	}

	if f.XLSX {
		path, err := e.xlsx.Export(p)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if f.HTML {
		htmlPath, err := WriteHTML(e.dir, p, images)
		if err != nil {
			return written, err
		}
		written = append(written, htmlPath)

		if f.PDF {
			pdfPath, err := e.pdf.Print(htmlPath)
			if err != nil {
				return written, err
			}
			written = append(written, pdfPath)
		}
	}

	e.logger.Info("[export] %s: wrote %d files", p.Key, len(written))
	return written, nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"passenger-insights/export"
	"passenger-insights/services"
)

var exportFlags struct {
	png  bool
	xlsx bool
	html bool
	pdf  bool
	dir  string
}

var exportCmd = &cobra.Command{
	Use:   "export <key> [key...]",
	Short: "Write chart images, workbooks and reports for insights",
	Long:  "Write the selected artifacts to OUTPUT_DIR. With no format flags, PNG and XLSX are written.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExport,
}

func init() {
	addFormatFlags(exportCmd)
}

func addFormatFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&exportFlags.png, "png", false, "write chart PNGs")
	f.BoolVar(&exportFlags.xlsx, "xlsx", false, "write an XLSX workbook")
	f.BoolVar(&exportFlags.html, "html", false, "write a self-contained HTML page")
	f.BoolVar(&exportFlags.pdf, "pdf", false, "print the HTML page to PDF with headless Chrome")
	f.StringVar(&exportFlags.dir, "out", "", "output directory (overrides OUTPUT_DIR)")
}

func selectedFormats() export.Formats {
	f := export.Formats{
		PNG:  exportFlags.png,
		XLSX: exportFlags.xlsx,
		HTML: exportFlags.html,
		PDF:  exportFlags.pdf,
	}
	if f == (export.Formats{}) {
		f.PNG, f.XLSX = true, true
	}
	return f
}

func newExporter(a *app) *export.Exporter {
	dir := a.cfg.OutputDir
	if exportFlags.dir != "" {
		dir = exportFlags.dir
	}
	return export.NewExporter(dir,
		export.NewPNGRenderer(dir, a.cfg.ChartWidthIn, a.cfg.ChartHeightIn, a.logger),
		export.NewXLSXExporter(dir, a.logger),
		export.NewPDFExporter(a.cfg.ChromeBin, a.logger),
		a.logger,
	)
}

func runExport(cmd *cobra.Command, args []string) error {
	registry, err := services.DefaultRegistry()
	if err != nil {
		return err
	}
	keys, err := resolveKeys(registry, args)
	if err != nil {
		return err
	}

	a, err := newApp(registry, false)
	if err != nil {
		return err
	}
	exporter := newExporter(a)
	formats := selectedFormats()

	out := cmd.OutOrStdout()
	for _, key := range keys {
		p, err := a.svc.Generate(key)
		if err != nil {
			return unknownInsight(err)
		}
		paths, err := exporter.Export(p, formats)
		if err != nil {
			return fmt.Errorf("export %s: %w", key, err)
		}
		for _, path := range paths {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
	return nil
}

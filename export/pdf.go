package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"passenger-insights/utils"
)

// PDFExporter prints HTML reports to PDF through headless Chrome.
type PDFExporter struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
}

// NewPDFExporter uses chromeBin, or the first Chrome/Chromium found on the
// system when it is empty.
func NewPDFExporter(chromeBin string, logger *utils.Logger) *PDFExporter {
	if chromeBin == "" {
		chromeBin = FindChromeBinary()
	}
	return &PDFExporter{chromeBin: chromeBin, timeout: 60 * time.Second, logger: logger}
}

// Available reports whether a browser binary was found.
func (e *PDFExporter) Available() bool {
	return e.chromeBin != ""
}

// Print renders the HTML file at htmlPath into a PDF next to it and returns
// the PDF path.
func (e *PDFExporter) Print(htmlPath string) (string, error) {
	if !e.Available() {
		return "", fmt.Errorf("pdf: no Chrome/Chromium binary found (set CHROME_BIN)")
	}
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.ExecPath(e.chromeBin),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, e.timeout)
	defer cancelTimeout()

	var pdf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("pdf: print %q: %w", htmlPath, err)
	}

	out := abs[:len(abs)-len(filepath.Ext(abs))] + ".pdf"
	if err := os.WriteFile(out, pdf, 0644); err != nil {
		return "", fmt.Errorf("pdf: write %q: %w", out, err)
	}
	e.logger.Debug("[export] Wrote %s", out)
	return out, nil
}

// FindChromeBinary locates a Chrome/Chromium binary.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

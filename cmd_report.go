package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"passenger-insights/models"
	"passenger-insights/services"
	"passenger-insights/utils"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build and export every insight in parallel",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	addFormatFlags(reportCmd)
}

type reportResult struct {
	key   string
	paths []string
	err   error
}

// buildAll generates every registered insight on a bounded worker pool and
// returns the presentations in selector order.
func buildAll(svc *services.InsightService, workers int, logger *utils.Logger) ([]*models.Presentation, error) {
	keys := svc.Keys()
	results := make([]*models.Presentation, len(keys))
	errs := make([]error, len(keys))

	pool := utils.NewWorkerPool(workers, 0)
	for i, key := range keys {
		pool.Submit(func() {
			results[i], errs[i] = svc.Generate(key)
		})
	}
	pool.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("insight %s: %w", keys[i], err)
		}
	}
	logger.Info("[report] Built %d insights with %d workers", len(results), workers)
	return results, nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	registry, err := services.DefaultRegistry()
	if err != nil {
		return err
	}
	a, err := newApp(registry, false)
	if err != nil {
		return err
	}

	presentations, err := buildAll(a.svc, a.cfg.MaxConcurrency, a.logger)
	if err != nil {
		return err
	}

	exporter := newExporter(a)
	formats := selectedFormats()
	results := make([]reportResult, len(presentations))
	pool := utils.NewWorkerPool(a.cfg.MaxConcurrency, 0)
	for i, p := range presentations {
		pool.Submit(func() {
			paths, err := exporter.Export(p, formats)
			results[i] = reportResult{key: p.Key, paths: paths, err: err}
		})
	}
	pool.Wait()

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %-20s %v\n", r.key, r.err)
			continue
		}
		fmt.Fprintf(out, "  ✓ %-20s %d files\n", r.key, len(r.paths))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d insights failed to export", failed, len(results))
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"passenger-insights/config"
	"passenger-insights/models"
	"passenger-insights/services"
	"passenger-insights/storage"
	"passenger-insights/utils"
)

var rootFlags struct {
	dataset string
	source  string
}

var rootCmd = &cobra.Command{
	Use:   "passenger-insights",
	Short: "Chart, narrative and statistics views of the Titanic passenger list",
	Long: "passenger-insights prepares the passenger dataset once and turns an insight key\n" +
		"into a chart specification, a narrative and a statistics panel.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.dataset, "dataset", "", "CSV dataset path (overrides DATASET_PATH)")
	pf.StringVar(&rootFlags.source, "source", "", "dataset source: csv or postgres (overrides DATASET_SOURCE)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(prepareCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the prepared process state shared by every command.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	registry *services.Registry
	dataset  *models.Dataset
	svc      *services.InsightService
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if rootFlags.dataset != "" {
		cfg.DatasetPath = rootFlags.dataset
	}
	if rootFlags.source != "" {
		cfg.DatasetSource = rootFlags.source
	}
	return cfg
}

// newApp loads and prepares the dataset. dataOnStdout moves log output to
// stderr for commands whose stdout is a document. Any failure here, including a
// schema error, aborts before an insight is computed.
func newApp(registry *services.Registry, dataOnStdout bool) (*app, error) {
	cfg := loadConfig()
	logger := newLogger(cfg, dataOnStdout)

	source, err := openSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	raw, err := source.Load()
	if err != nil {
		if errors.Is(err, models.ErrSchema) {
			logger.Error("Dataset schema check failed: %v", err)
		}
		return nil, err
	}

	ds, err := services.NewFeatureDeriver(logger).Prepare(raw)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		dataset:  ds,
		svc:      services.NewInsightService(logger, registry, ds),
	}, nil
}

func newLogger(cfg *config.Config, dataOnStdout bool) *utils.Logger {
	if dataOnStdout {
		return utils.NewLoggerTo(os.Stderr, cfg.LogDebug)
	}
	return utils.NewLogger(cfg.LogDebug)
}

func openSource(cfg *config.Config, logger *utils.Logger) (storage.PassengerSource, error) {
	switch cfg.DatasetSource {
	case "csv":
		return storage.NewCSVSource(cfg.DatasetPath, logger), nil
	case "postgres":
		return openPostgres(cfg, logger)
	}
	return nil, fmt.Errorf("unknown dataset source %q (want csv or postgres)", cfg.DatasetSource)
}

func openPostgres(cfg *config.Config, logger *utils.Logger) (*storage.PostgresStore, error) {
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
		Retryable:   storage.TransientError,
	}
	store, err := storage.NewPostgresStore(cfg.DSN(), retry, logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		return nil, err
	}
	return store, nil
}

// resolveKeys de-duplicates keys and checks every one against the registry
// before anything is loaded or computed.
func resolveKeys(registry *services.Registry, args []string) ([]string, error) {
	set := utils.NewKeySet()
	for _, key := range args {
		if _, err := registry.Resolve(key); err != nil {
			return nil, unknownInsight(err)
		}
		set.Add(key)
	}
	return set.Keys(), nil
}

func unknownInsight(err error) error {
	var unknown *models.UnknownInsightError
	if errors.As(err, &unknown) {
		return fmt.Errorf("%w; run 'passenger-insights list' to see available insights", err)
	}
	return err
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"passenger-insights/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy the CSV dataset into PostgreSQL",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	logger := newLogger(cfg, false)

	src := storage.NewCSVSource(cfg.DatasetPath, logger)
	defer src.Close()
	rows, err := src.Load()
	if err != nil {
		return err
	}

	store, err := openPostgres(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Write(rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Seeded %d passengers from %s → PostgreSQL (passengers table)\n",
		len(rows), cfg.DatasetPath)
	return nil
}

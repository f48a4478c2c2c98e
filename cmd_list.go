package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"passenger-insights/services"
)

var listFlags struct {
	json bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available insights in selector order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listFlags.json, "json", false, "print the selector list as JSON")
}

func runList(cmd *cobra.Command, _ []string) error {
	registry, err := services.DefaultRegistry()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if listFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(registry.Options())
	}
	for _, opt := range registry.Options() {
		fmt.Fprintf(out, "  %-20s %s\n", opt.Key, opt.Label)
	}
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"passenger-insights/services"
)

var showFlags struct {
	json bool
}

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the chart, narrative and statistics for one insight",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showFlags.json, "json", false, "print the presentation as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	registry, err := services.DefaultRegistry()
	if err != nil {
		return err
	}
	keys, err := resolveKeys(registry, args)
	if err != nil {
		return err
	}

	a, err := newApp(registry, showFlags.json)
	if err != nil {
		return err
	}
	p, err := a.svc.Generate(keys[0])
	if err != nil {
		return unknownInsight(err)
	}

	if showFlags.json {
		return services.WriteJSON(cmd.OutOrStdout(), p)
	}
	a.svc.Print(cmd.OutOrStdout(), p)
	return nil
}

// Package cli implements the goat command-line interface using Cobra.
// Each subcommand maps to a sandbox pipeline capability (serve, train,
// kill-switch, scenario, promote, personas, budget).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "goat",
	Short: "goat — Adversarial sales-training sandbox",
	Long: `goat runs the autonomous sales-training pipeline.
Sales agents battle hostile buyer personas in a sandboxed arena; a referee
scores every transcript, a budget governor caps daily spend, and winning
rebuttals can be promoted into the production tactic set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

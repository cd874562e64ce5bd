// Package main provides the hotspot CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// globalOpts are flags shared by every subcommand.
type globalOpts struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var g globalOpts

	rootCmd := &cobra.Command{
		Use:   "hotspot",
		Short: "Severity scoring for civic issue reports",
		Long: `Hotspot fuses image, location, text and community signals for a
civic issue report into an explainable 0-100 severity score.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Scoring config file (default: search for .hotspot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newScoreCmd(&g),
		newFeaturesCmd(&g),
		newCalibrateCmd(),
		newLocateCmd(&g),
		newAnalyzeTextCmd(&g),
		newModelCmd(&g),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

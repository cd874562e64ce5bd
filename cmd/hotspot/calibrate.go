package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
)

func newCalibrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate RAW...",
		Short: "Apply the model calibration curve to raw scores",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "calibration %s\n", scoring.CalibrationVersion)
			for _, a := range args {
				raw, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid raw score %q: %w", a, err)
				}
				fmt.Fprintf(out, "%6.1f -> %d\n", raw, scoring.Calibrate(raw))
			}
			return nil
		},
	}
}

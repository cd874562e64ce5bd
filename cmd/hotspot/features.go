package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
)

func newFeaturesCmd(g *globalOpts) *cobra.Command {
	var (
		category string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "features [bundle.json]",
		Short: "List feature names, or show the feature vector of a bundle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if asJSON {
					return writeJSON(out, map[string]any{"display": features.Names, "model": features.ModelNames})
				}
				for i, name := range features.Names {
					fmt.Fprintf(out, "%2d  %s\n", i, name)
				}
				return nil
			}

			cfg, err := loadConfig(g.configPath)
			if err != nil {
				return err
			}
			bundle, err := readBundle(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			divisor := 0.0
			if p, ok := cfg.Profiles[cfg.ProfileFor(category)]; ok {
				divisor = p.SocialDivisor
			}
			v := features.Build(bundle, features.Options{SocialDivisor: divisor})

			if asJSON {
				return writeJSON(out, map[string]any{"display": v.Display, "model": v.ModelView()})
			}
			vals := v.Display.Values()
			for i, name := range features.Names {
				fmt.Fprintf(out, "%-24s %8.3f\n", name, vals[i])
			}
			fmt.Fprintln(out)
			mv := v.ModelView()
			for i, name := range features.ModelNames {
				fmt.Fprintf(out, "%-24s %8.3f\n", name, mv[i])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Report category used to pick the social divisor")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

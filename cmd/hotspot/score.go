package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotspot-prioritizer/hotspot/pkg/model"
	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
	"github.com/hotspot-prioritizer/hotspot/pkg/surface"
)

type scoreOpts struct {
	category  string
	profile   string
	modelPath string
	upvotes   int
	outputFmt string
}

func newScoreCmd(g *globalOpts) *cobra.Command {
	var opts scoreOpts

	cmd := &cobra.Command{
		Use:   "score [bundle.json]",
		Short: "Score a signal bundle",
		Long: `Reads a signal bundle (objectDetection, sceneClassification,
locationContext, textAnalysis, socialSignal) from a file or stdin and
prints its severity result.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if !cmd.Flags().Changed("upvotes") {
				opts.upvotes = -1
			}
			return runScore(cmd, g, path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "Report category used for profile routing")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Scoring profile (overrides --category)")
	cmd.Flags().StringVar(&opts.modelPath, "model", "", "Trained model artifact (overrides config)")
	cmd.Flags().IntVar(&opts.upvotes, "upvotes", 0, "Override the bundle's upvote count")
	cmd.Flags().StringVar(&opts.outputFmt, "output", "text", "Output format: text, json or markdown")

	return cmd
}

func runScore(cmd *cobra.Command, g *globalOpts, path string, opts scoreOpts) error {
	renderer, err := surface.ForFormat(opts.outputFmt)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return err
	}
	bundle, err := readBundle(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if opts.upvotes >= 0 {
		bundle.Social.UpvoteCount = opts.upvotes
	}

	var engineOpts []scoring.Option
	src := cfg.ModelSource(nil)
	if opts.modelPath != "" {
		src = model.FileSource(opts.modelPath)
	}
	if src != nil {
		engineOpts = append(engineOpts, scoring.WithPredictor(model.NewLoader(src, newLogger(g))))
	}

	engine, err := cfg.NewEngine(engineOpts...)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	profile := firstNonEmpty(opts.profile, engine.ProfileFor(opts.category))
	result := engine.Score(profile, bundle)
	if err := renderer.Render(cmd.OutOrStdout(), &result); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotspot-prioritizer/hotspot/internal/adapter/inference"
	"github.com/hotspot-prioritizer/hotspot/pkg/text"
)

func newAnalyzeTextCmd(g *globalOpts) *cobra.Command {
	var (
		inferenceURL string
		token        string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze-text [TEXT...]",
		Short: "Extract urgency signals from a report description",
		Long: `Matches urgency keywords and, when an inference service is given,
classifies sentiment and risk. Reads stdin when no text is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := strings.Join(args, " ")
			if s == "" {
				data, err := readInput("-", cmd.InOrStdin())
				if err != nil {
					return err
				}
				s = strings.TrimSpace(string(data))
			}

			opts := []text.Option{text.WithLogger(newLogger(g))}
			if inferenceURL != "" {
				client := inference.New(inferenceURL, token, timeout)
				opts = append(opts, text.WithSentiment(client), text.WithRisk(client))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return writeJSON(cmd.OutOrStdout(), text.NewResolver(opts...).Analyze(ctx, s))
		},
	}

	cmd.Flags().StringVar(&inferenceURL, "inference-url", "", "Sentiment and zero-shot inference service")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token for the inference service")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Analysis timeout")
	return cmd
}

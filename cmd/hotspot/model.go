package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	serviceconfig "github.com/hotspot-prioritizer/hotspot/internal/config"
	"github.com/hotspot-prioritizer/hotspot/internal/ingestion"
	"github.com/hotspot-prioritizer/hotspot/pkg/model"
)

func newModelCmd(g *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage trained model artifacts",
	}
	cmd.AddCommand(newModelPushCmd(g))
	return cmd
}

func newModelPushCmd(g *globalOpts) *cobra.Command {
	var (
		name          string
		serviceConfig string
	)

	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Validate a model artifact and upload it to blob storage",
		Long: `Push parses FILE (or stdin with "-") as a model artifact and uploads it
to the blob storage hotspotd reads from. Storage settings come from
--service-config and HOTSPOT_STORAGE_* variables, the same way the server
loads them. The blob name defaults to model.blob in the scoring config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g)

			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			_, artifact, err := model.Parse(data)
			if err != nil {
				return fmt.Errorf("invalid model artifact: %w", err)
			}

			scoringCfg, err := loadConfig(g.configPath)
			if err != nil {
				return err
			}
			name = firstNonEmpty(name, scoringCfg.Model.Blob)
			if name == "" {
				return errors.New("no model name: pass --name or set model.blob in the scoring config")
			}

			svcCfg, err := serviceconfig.Load(serviceConfig)
			if err != nil {
				return err
			}
			storage, err := ingestion.OpenStorage(cmd.Context(), svcCfg.Storage)
			if err != nil {
				return err
			}
			if storage == nil {
				return fmt.Errorf("storage backend %q cannot hold models", svcCfg.Storage.Backend)
			}
			if err := storage.PutModel(cmd.Context(), name, data); err != nil {
				return fmt.Errorf("push model %s: %w", name, err)
			}

			logger.Info("model pushed",
				zap.String("name", name),
				zap.String("backend", svcCfg.Storage.Backend),
				zap.String("type", artifact.Type))
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %s model %s as %q\n",
				artifact.Type, firstNonEmpty(artifact.Version, "(unversioned)"), name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Blob name of the model (default: model.blob from the scoring config)")
	cmd.Flags().StringVar(&serviceConfig, "service-config", "", "hotspotd config file holding the storage settings")
	return cmd
}

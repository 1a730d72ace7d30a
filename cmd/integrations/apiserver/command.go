package apiserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/business"
	"github.com/pagedeck/integrations/internal/cmdutils"
	"github.com/pagedeck/integrations/internal/config"
)

func run(ctx context.Context, cfg *config.Config) error {
	cmdutils.InitLogger(cfg.Logger)

	slogctx.Debug(ctx, "Starting the application", slog.Any("config", cfg))

	if err := cfg.Validate(); err != nil {
		return oops.In("main").
			Wrapf(err, "Invalid configuration")
	}

	if err := business.Main(ctx, cfg); err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to start the main business application")
	}

	return nil
}

func Cmd(version string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "api-server",
		Short: "Integrations API server",
		Long:  "Hosts the integration adapters' public HTTP API and the host runtime's event endpoints.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			slog.Info("Starting integrations api-server", "version", version)

			if err := run(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("running the api server: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the config file")

	return cmd
}

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bootstrapper/internal/gateway/app"
	"bootstrapper/internal/gateway/config"
)

func serveCmd() *cobra.Command {
	var port, workspace string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway (scan, plan, execute, run artifacts)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = config.NormalizePort(port)
			}
			if workspace != "" {
				cfg.WorkspaceDir = workspace
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			return a.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen address (overrides PORT)")
	cmd.Flags().StringVar(&workspace, "workspace", "", "Parent directory for runs and clones (overrides WORKSPACE_DIR)")
	return cmd
}

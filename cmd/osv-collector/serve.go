package main

import (
	"os/signal"
	"syscall"

	"github.com/osv-purl-collector/pkg/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collector over HTTP",
		Long: `Starts an HTTP service with:
  POST /api/v1/collect    {"purls": [...]} -> {"purls": {"<purl>": ["<id>", ...]}}
  GET  /api/v1/vulns/:id  full OSV record`,
		RunE: runServe,
	}
	cmd.Flags().String("listen", ":3000", "Address to listen on")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	srv := server.New(a.collector, a.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		a.logger.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			a.logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	a.logger.Info("starting server", zap.String("listen", a.cfg.Listen), zap.String("osv", a.cfg.APIURL))
	return srv.Listen(a.cfg.Listen)
}

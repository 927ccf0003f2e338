package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the holders HTTP API",
		Long: `
Run the holders HTTP API.

Endpoints:
  GET /api/v1/tokens/:address/holders?sort=&dir=&search=&limit=
  GET /api/v1/endpoint
  GET /health

Settings come from the config file and HOLDERS_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctx, core, tl, cleanup, err := bootstrap(ctx, flags, "")
			if err != nil {
				return err
			}
			defer cleanup()

			core.Start(ctx)
			server := core.NewAPI()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err = <-errCh:
			case <-ctx.Done():
				tl.Info("Received shutdown signal, starting graceful shutdown...")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if serr := server.Shutdown(shutdownCtx); serr != nil {
				tl.Error("graceful shutdown failed", zap.Error(serr))
			}
			core.Stop(shutdownCtx)

			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

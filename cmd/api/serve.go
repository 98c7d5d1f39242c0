package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"microloans-api/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := app.Bootstrap(ctx, cfg, log, migrate)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(); err != nil {
					log.Warn("close resources", zap.Error(err))
				}
			}()

			eg, egctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				addr := ":" + cfg.AppPort
				log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
				if err := rt.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-egctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				log.Info("shutting down")
				return rt.Echo.Shutdown(shutdownCtx)
			})
			return eg.Wait()
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

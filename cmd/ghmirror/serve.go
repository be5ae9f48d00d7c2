// cmd/ghmirror/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github-repo-mirror/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local mirror over a read-only HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		server := &http.Server{
			Addr:    a.cfg.HTTPAddr,
			Handler: api.NewRouter(a.queries, a.logger),
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("HTTP API listening", "addr", a.cfg.HTTPAddr)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			a.logger.Info("Shutdown signal received")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

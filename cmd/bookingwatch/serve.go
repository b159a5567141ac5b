package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/bookingwatch/api"
	"github.com/use-agent/bookingwatch/api/handler"
	"github.com/use-agent/bookingwatch/cache"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the HTTP API for triggering runs and reading the latest results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("bookingwatch starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"mode", cfg.Server.Mode,
			"maxPages", cfg.Browser.MaxPages,
			"targets", len(cfg.Targets),
		)

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		// a.close runs last: drains the page pool and kills Chrome.
		defer a.close()

		stopCache := make(chan struct{})
		defer close(stopCache)
		cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.MaxAge, stopCache)

		var pool handler.PoolStatser
		if a.scraper != nil {
			pool = a.scraper
		}
		router := api.NewRouter(a.newJob(cfg), pool, cfg, cc, time.Now())

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		serveErr := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
		case <-cmd.Context().Done():
			slog.Info("shutdown signal received")
		}

		// Give in-flight requests 5 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		slog.Info("bookingwatch stopped")
		return nil
	},
}

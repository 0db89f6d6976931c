package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage-connect/config"
	"github.com/sage-x-project/sage-connect/internal/metrics"
)

var serveConfigDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Prometheus metrics endpoint from config",
	Long: `Loads configuration the way a running profile process would and,
if metrics are enabled, starts the Prometheus /metrics endpoint and
blocks until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigDir, "config-dir", "", "directory to load <env>.yaml/default.yaml/config.yaml from")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	opts := config.DefaultLoaderOptions()
	if serveConfigDir != "" {
		opts.ConfigDir = serveConfigDir
	}
	cfg, err := config.Load(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Metrics == nil || !cfg.Metrics.Enabled {
		fmt.Println("metrics disabled in config; nothing to serve")
		return nil
	}

	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("metrics listening on http://localhost%s%s\n", addr, cfg.Metrics.Path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/polyrun/internal/console"
	"github.com/michaelbrown/polyrun/internal/server"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the polyrun HTTP server",
	Long: `Start the polyrun HTTP server with REST API and WebSocket support.

Endpoints:
  POST /api/execute            run one submission
  GET  /api/languages[/{key}]  language descriptors and scaffolds
  GET  /api/runs               runs still in flight
  GET  /api/ws                 WebSocket run stream
  POST /api/jdoodle            same-origin proxy to the remote service

Examples:
  polyrun serve
  polyrun serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	// Sandbox output goes to the server log as well as the response.
	d, err := cfg.Dispatcher(console.Slog(logger))
	if err != nil {
		return err
	}

	// Determine port
	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	srv, err := server.New(cfg, d, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	if err := srv.Start(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

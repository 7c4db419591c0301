package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lakitu0/lakitu/api"
	"github.com/lakitu0/lakitu/internal/chat"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the local REST API. The server binds to loopback by default and
carries no authentication; do not expose it beyond the local machine.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", api.DefaultAddr, "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	pipeline, err := a.NewPipeline()
	if err != nil {
		return fmt.Errorf("creating ingestion pipeline: %w", err)
	}

	// Capture control endpoints are only available when a capture
	// command is configured.
	var capture api.CaptureController
	if svc, err := a.NewCaptureService(); err == nil {
		capture = svc
		defer svc.Stop()
	} else {
		a.Logger.Info("capture service unavailable", "reason", err)
	}

	srv := api.NewServer(api.Deps{
		Pinger:      a.DBPool,
		Sessions:    a.Sessions,
		Flow:        chat.NewFlow(a.Genkit, a.Agent),
		Knowledge:   a.Knowledge,
		Screenshots: a.Screenshots,
		Capture:     capture,
		Detector:    a.Detector,
		Ingestor:    pipeline,
		Logger:      a.Logger,
	})

	if err := srv.Run(ctx, serveAddr); err != nil {
		return fmt.Errorf("HTTP server: %w", err)
	}
	return nil
}

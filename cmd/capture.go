package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lakitu0/lakitu/internal/screenshot"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Screenshot capture daemon",
	Long: `Manage the background screenshot capture loop. Captured images are
encrypted with AES-256-GCM before they reach the database; a lock file
prevents two daemons from running at once.`,
	RunE: runCapture,
}

var captureOnceCmd = &cobra.Command{
	Use:   "once",
	Short: "Capture a single screenshot now",
	RunE:  runCaptureOnce,
}

func init() {
	captureCmd.AddCommand(captureOnceCmd)
	rootCmd.AddCommand(captureCmd)
}

func runCapture(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	svc, err := a.NewCaptureService()
	if err != nil {
		return fmt.Errorf("creating capture service: %w", err)
	}

	if err := svc.Start(ctx); err != nil {
		if errors.Is(err, screenshot.ErrAlreadyRunning) {
			return fmt.Errorf("another capture daemon is already running")
		}
		return fmt.Errorf("starting capture: %w", err)
	}

	a.Logger.Info("capture daemon running", "interval_seconds", a.Config.Capture.IntervalSeconds)
	<-ctx.Done()

	svc.Stop()
	a.Logger.Info("capture daemon stopped")
	return nil
}

func runCaptureOnce(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	svc, err := a.NewCaptureService()
	if err != nil {
		return fmt.Errorf("creating capture service: %w", err)
	}

	id, err := svc.CaptureOnce(ctx)
	if err != nil {
		return fmt.Errorf("capturing screenshot: %w", err)
	}

	fmt.Printf("Captured screenshot %d\n", id)
	return nil
}

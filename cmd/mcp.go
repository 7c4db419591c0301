package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	mcpSDK "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/lakitu0/lakitu/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start a Model Context Protocol server exposing the knowledge base,
game detection, and screenshot archive as tools. Connect MCP-capable
clients (editors, agent frameworks) over stdio.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	server, err := mcp.NewServer(mcp.Config{
		Name:        "lakitu",
		Version:     AppVersion,
		Knowledge:   a.Knowledge,
		Detector:    a.Detector,
		Screenshots: a.Screenshots,
		Logger:      a.Logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	a.Logger.Info("MCP server ready", "name", "lakitu", "version", AppVersion, "transport", "stdio")

	if err := server.Run(ctx, &mcpSDK.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}

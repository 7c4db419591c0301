// Package mcp exposes the assistant's knowledge base, game detection, and
// screenshot archive as Model Context Protocol tools.
//
// Any MCP-capable client (editors, agent frameworks, other assistants) can
// connect over stdio and call:
//
//	search_knowledge    vector search over a game's ingested documents
//	knowledge_stats     per-game document counts by source type
//	list_games          known game identifiers
//	detect_game         detect the active game from a message
//	recent_screenshots  metadata of recently captured screenshots
//	screenshot_stats    screenshot archive totals
//
// Tool results are JSON encoded into a single text content block; clients
// parse the JSON themselves.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/screenshot"
)

// KnowledgeStore is the slice of the knowledge store the tools use.
type KnowledgeStore interface {
	Search(ctx context.Context, game, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
	Games(ctx context.Context) (map[string]int64, error)
	GameStats(ctx context.Context, game string) (knowledge.Stats, error)
}

// GameDetector detects which game the user is playing.
type GameDetector interface {
	Detect(ctx context.Context, message string) string
	Games() []string
}

// ScreenshotStore is the slice of the screenshot store the tools use.
type ScreenshotStore interface {
	Recent(ctx context.Context, filter screenshot.Filter) ([]screenshot.Metadata, error)
	Stats(ctx context.Context) (*screenshot.Stats, error)
}

// Config holds MCP server configuration.
type Config struct {
	Name        string
	Version     string
	Knowledge   KnowledgeStore
	Detector    GameDetector
	Screenshots ScreenshotStore
	Logger      log.Logger
}

// Server wraps the MCP SDK server around the assistant's stores.
type Server struct {
	mcpServer   *mcp.Server
	knowledge   KnowledgeStore
	detector    GameDetector
	screenshots ScreenshotStore
	logger      log.Logger
}

// NewServer creates an MCP server with all tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Knowledge == nil {
		return nil, fmt.Errorf("knowledge store is required")
	}
	if cfg.Detector == nil {
		return nil, fmt.Errorf("game detector is required")
	}
	if cfg.Screenshots == nil {
		return nil, fmt.Errorf("screenshot store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		knowledge:   cfg.Knowledge,
		detector:    cfg.Detector,
		screenshots: cfg.Screenshots,
		logger:      logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	return s, nil
}

// Run serves the MCP protocol on the given transport. It blocks until the
// context is cancelled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// dataToMCP encodes data as a single JSON text content block.
func dataToMCP(data any) *mcp.CallToolResult {
	if data == nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: ""}},
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "marshal error"}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// errorToMCP returns a tool-level error result. Only the message is
// exposed; anything sensitive stays in the server logs.
func errorToMCP(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

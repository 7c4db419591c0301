package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/screenshot"
)

// Tool names as exposed to MCP clients.
const (
	ToolSearchKnowledge   = "search_knowledge"
	ToolKnowledgeStats    = "knowledge_stats"
	ToolListGames         = "list_games"
	ToolDetectGame        = "detect_game"
	ToolRecentScreenshots = "recent_screenshots"
	ToolScreenshotStats   = "screenshot_stats"
)

const (
	defaultSearchTopK = 5
	maxSearchTopK     = 20
	maxRecentLimit    = 100
)

// registerTools registers every tool on the underlying MCP server.
func (s *Server) registerTools() error {
	searchSchema, err := jsonschema.For[SearchKnowledgeInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolSearchKnowledge, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolSearchKnowledge,
		Description: "Search a game's knowledge base using semantic similarity. " +
			"Returns document chunks from wikis, video descriptions, and forums.",
		InputSchema: searchSchema,
	}, s.SearchKnowledge)

	statsSchema, err := jsonschema.For[KnowledgeStatsInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolKnowledgeStats, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolKnowledgeStats,
		Description: "Get knowledge base statistics. With a game, returns that game's " +
			"document counts by source type; without, returns per-game totals.",
		InputSchema: statsSchema,
	}, s.KnowledgeStats)

	emptySchema, err := jsonschema.For[EmptyInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolListGames, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListGames,
		Description: "List the identifiers of all games the assistant knows about.",
		InputSchema: emptySchema,
	}, s.ListGames)

	detectSchema, err := jsonschema.For[DetectGameInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolDetectGame, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolDetectGame,
		Description: "Detect which game the user is playing from a message, " +
			"running processes, and recent screenshots. Returns an empty game when unsure.",
		InputSchema: detectSchema,
	}, s.DetectGame)

	recentSchema, err := jsonschema.For[RecentScreenshotsInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolRecentScreenshots, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolRecentScreenshots,
		Description: "List metadata of recently captured screenshots, newest first. " +
			"Image data is not included.",
		InputSchema: recentSchema,
	}, s.RecentScreenshots)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolScreenshotStats,
		Description: "Get screenshot archive statistics: totals, per-application counts, and date range.",
		InputSchema: emptySchema,
	}, s.ScreenshotStats)

	return nil
}

// EmptyInput is the schema for tools that take no arguments.
type EmptyInput struct{}

// SearchKnowledgeInput is the input schema for search_knowledge.
type SearchKnowledgeInput struct {
	Game        string   `json:"game" jsonschema:"Game identifier, e.g. elden_ring"`
	Query       string   `json:"query" jsonschema:"Natural language search query"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"Maximum results to return (default 5, max 20)"`
	SourceTypes []string `json:"source_types,omitempty" jsonschema:"Optional filter: wiki, youtube, forum"`
}

// SearchKnowledge handles the search_knowledge tool call.
func (s *Server) SearchKnowledge(ctx context.Context, _ *mcp.CallToolRequest, input SearchKnowledgeInput) (*mcp.CallToolResult, any, error) {
	if input.Game == "" || input.Query == "" {
		return errorToMCP("game and query are required"), nil, nil
	}
	for _, st := range input.SourceTypes {
		if !knowledge.ValidSourceType(st) {
			return errorToMCP(fmt.Sprintf("unknown source type %q", st)), nil, nil
		}
	}

	topK := input.TopK
	if topK <= 0 {
		topK = defaultSearchTopK
	}
	if topK > maxSearchTopK {
		topK = maxSearchTopK
	}

	opts := []knowledge.SearchOption{knowledge.WithTopK(topK)}
	if len(input.SourceTypes) > 0 {
		opts = append(opts, knowledge.WithSourceTypes(input.SourceTypes...))
	}

	results, err := s.knowledge.Search(ctx, input.Game, input.Query, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("searchKnowledge failed: %w", err)
	}

	type hit struct {
		Title      string  `json:"title"`
		URL        string  `json:"url"`
		SourceType string  `json:"source_type"`
		Content    string  `json:"content"`
		Similarity float32 `json:"similarity"`
	}
	hits := make([]hit, 0, len(results))
	for _, res := range results {
		hits = append(hits, hit{
			Title:      res.Document.Title,
			URL:        res.Document.URL,
			SourceType: res.Document.SourceType,
			Content:    res.Document.Content,
			Similarity: res.Similarity,
		})
	}

	return dataToMCP(map[string]any{
		"game":    input.Game,
		"results": hits,
	}), nil, nil
}

// KnowledgeStatsInput is the input schema for knowledge_stats.
type KnowledgeStatsInput struct {
	Game string `json:"game,omitempty" jsonschema:"Optional game identifier; omit for per-game totals"`
}

// KnowledgeStats handles the knowledge_stats tool call.
func (s *Server) KnowledgeStats(ctx context.Context, _ *mcp.CallToolRequest, input KnowledgeStatsInput) (*mcp.CallToolResult, any, error) {
	if input.Game == "" {
		games, err := s.knowledge.Games(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("knowledgeStats failed: %w", err)
		}
		return dataToMCP(map[string]any{"games": games}), nil, nil
	}

	stats, err := s.knowledge.GameStats(ctx, input.Game)
	if err != nil {
		return nil, nil, fmt.Errorf("knowledgeStats failed: %w", err)
	}
	return dataToMCP(stats), nil, nil
}

// ListGames handles the list_games tool call.
func (s *Server) ListGames(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	return dataToMCP(map[string]any{"games": s.detector.Games()}), nil, nil
}

// DetectGameInput is the input schema for detect_game.
type DetectGameInput struct {
	Message string `json:"message,omitempty" jsonschema:"Optional user message to scan for game keywords"`
}

// DetectGame handles the detect_game tool call.
func (s *Server) DetectGame(ctx context.Context, _ *mcp.CallToolRequest, input DetectGameInput) (*mcp.CallToolResult, any, error) {
	game := s.detector.Detect(ctx, input.Message)
	return dataToMCP(map[string]any{
		"game":     game,
		"detected": game != "",
	}), nil, nil
}

// RecentScreenshotsInput is the input schema for recent_screenshots.
type RecentScreenshotsInput struct {
	Application string `json:"application,omitempty" jsonschema:"Optional application name filter"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum rows to return (default 20, max 100)"`
	SinceHours  int    `json:"since_hours,omitempty" jsonschema:"Only screenshots captured within the last N hours"`
}

// RecentScreenshots handles the recent_screenshots tool call.
func (s *Server) RecentScreenshots(ctx context.Context, _ *mcp.CallToolRequest, input RecentScreenshotsInput) (*mcp.CallToolResult, any, error) {
	filter := screenshot.Filter{
		Application: input.Application,
		Limit:       input.Limit,
	}
	if filter.Limit > maxRecentLimit {
		filter.Limit = maxRecentLimit
	}
	if input.SinceHours > 0 {
		filter.Since = time.Now().Add(-time.Duration(input.SinceHours) * time.Hour)
	}

	shots, err := s.screenshots.Recent(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("recentScreenshots failed: %w", err)
	}
	return dataToMCP(map[string]any{"screenshots": shots}), nil, nil
}

// ScreenshotStats handles the screenshot_stats tool call.
func (s *Server) ScreenshotStats(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	stats, err := s.screenshots.Stats(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("screenshotStats failed: %w", err)
	}
	return dataToMCP(stats), nil, nil
}

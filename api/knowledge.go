package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lakitu0/lakitu/internal/ingest"
	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/log"
)

// Knowledge search bounds.
const (
	DefaultSearchTopK  = 5
	MaxSearchTopK      = 50
	MaxQueryLength     = 2000
	MaxGameIDLength    = 100
	MaxIngestBodyBytes = 4 << 10
)

// KnowledgeStore is the slice of the knowledge store the handler uses.
type KnowledgeStore interface {
	Search(ctx context.Context, game, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
	Games(ctx context.Context) (map[string]int64, error)
	GameStats(ctx context.Context, game string) (knowledge.Stats, error)
	DeleteGame(ctx context.Context, game string) (int64, error)
}

// Ingestor runs the catalog ingestion pipeline for one game.
type Ingestor interface {
	ProcessGame(ctx context.Context, game string) (*ingest.Result, error)
	ValidateGame(game string) (*ingest.Catalog, error)
}

// KnowledgeHandler serves knowledge search, stats, and ingestion endpoints.
type KnowledgeHandler struct {
	store    KnowledgeStore
	ingestor Ingestor
	logger   log.Logger
}

// NewKnowledgeHandler creates a knowledge handler. ingestor may be nil, in
// which case the ingest endpoint reports 503.
func NewKnowledgeHandler(store KnowledgeStore, ingestor Ingestor, logger log.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{store: store, ingestor: ingestor, logger: logger}
}

// RegisterRoutes registers knowledge routes on the given mux.
func (h *KnowledgeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/knowledge/search", h.search)
	mux.HandleFunc("GET /api/knowledge/games", h.games)
	mux.HandleFunc("GET /api/knowledge/games/{game}", h.gameStats)
	mux.HandleFunc("DELETE /api/knowledge/games/{game}", h.deleteGame)
	mux.HandleFunc("POST /api/knowledge/ingest", h.ingest)
	mux.HandleFunc("GET /api/knowledge/games/{game}/catalog", h.validateCatalog)
}

// SearchRequest is the request body for knowledge search.
type SearchRequest struct {
	Game        string   `json:"game"`
	Query       string   `json:"query"`
	TopK        int      `json:"top_k"`
	SourceTypes []string `json:"source_types"`
}

// SearchResult is one search hit in the response.
type SearchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	SourceType string  `json:"source_type"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// search runs a vector similarity search over a game's knowledge.
func (h *KnowledgeHandler) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	if req.Game == "" || req.Query == "" {
		writeError(w, h.logger, http.StatusBadRequest, "MISSING_FIELD", "game and query are required")
		return
	}
	if len(req.Query) > MaxQueryLength {
		writeError(w, h.logger, http.StatusBadRequest, "QUERY_TOO_LONG", "query too long (max 2000 characters)")
		return
	}
	for _, st := range req.SourceTypes {
		if !knowledge.ValidSourceType(st) {
			writeError(w, h.logger, http.StatusBadRequest, "INVALID_SOURCE_TYPE", "source_types must be wiki, youtube, or forum")
			return
		}
	}

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultSearchTopK
	}
	if topK > MaxSearchTopK {
		topK = MaxSearchTopK
	}

	opts := []knowledge.SearchOption{knowledge.WithTopK(topK)}
	if len(req.SourceTypes) > 0 {
		opts = append(opts, knowledge.WithSourceTypes(req.SourceTypes...))
	}

	results, err := h.store.Search(r.Context(), req.Game, req.Query, opts...)
	if err != nil {
		h.logger.Error("knowledge search failed", "error", err, "game", req.Game)
		writeError(w, h.logger, http.StatusInternalServerError, "SEARCH_FAILED", "knowledge search failed")
		return
	}

	out := make([]SearchResult, 0, len(results))
	for _, res := range results {
		out = append(out, SearchResult{
			Title:      res.Document.Title,
			URL:        res.Document.URL,
			SourceType: res.Document.SourceType,
			Content:    res.Document.Content,
			Similarity: res.Similarity,
		})
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"game":    req.Game,
		"query":   req.Query,
		"results": out,
		"total":   len(out),
	})
}

// games returns per-game document counts.
func (h *KnowledgeHandler) games(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Games(r.Context())
	if err != nil {
		h.logger.Error("failed to list knowledge games", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "LIST_FAILED", "failed to list games")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"games": counts})
}

// gameStats returns one game's document counts by source type.
func (h *KnowledgeHandler) gameStats(w http.ResponseWriter, r *http.Request) {
	game := r.PathValue("game")
	if game == "" || len(game) > MaxGameIDLength {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_GAME", "invalid game identifier")
		return
	}

	stats, err := h.store.GameStats(r.Context(), game)
	if err != nil {
		h.logger.Error("failed to load game stats", "error", err, "game", game)
		writeError(w, h.logger, http.StatusInternalServerError, "STATS_FAILED", "failed to load game stats")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, stats)
}

// deleteGame drops every document stored for a game.
func (h *KnowledgeHandler) deleteGame(w http.ResponseWriter, r *http.Request) {
	game := r.PathValue("game")
	if game == "" || len(game) > MaxGameIDLength {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_GAME", "invalid game identifier")
		return
	}

	deleted, err := h.store.DeleteGame(r.Context(), game)
	if err != nil {
		h.logger.Error("failed to delete game knowledge", "error", err, "game", game)
		writeError(w, h.logger, http.StatusInternalServerError, "DELETE_FAILED", "failed to delete game knowledge")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"game":    game,
		"deleted": deleted,
	})
}

// IngestRequest is the request body for catalog ingestion.
type IngestRequest struct {
	Game string `json:"game"`
}

// ingest runs the scraping pipeline for one game's catalog. The request
// blocks until the run finishes; catalogs are small enough that a job
// queue is not worth the machinery.
func (h *KnowledgeHandler) ingest(w http.ResponseWriter, r *http.Request) {
	if h.ingestor == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "INGEST_UNAVAILABLE", "ingestion pipeline not configured")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxIngestBodyBytes)).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Game == "" || len(req.Game) > MaxGameIDLength {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_GAME", "game is required")
		return
	}

	result, err := h.ingestor.ProcessGame(r.Context(), req.Game)
	if err != nil {
		h.logger.Error("ingestion failed", "error", err, "game", req.Game)
		writeError(w, h.logger, http.StatusInternalServerError, "INGEST_FAILED", err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

// CatalogSource is one validated catalog entry in the response.
type CatalogSource struct {
	SourceType  string `json:"source_type"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Row         int    `json:"row"`
}

// validateCatalog checks a game's catalog CSV without ingesting it.
func (h *KnowledgeHandler) validateCatalog(w http.ResponseWriter, r *http.Request) {
	if h.ingestor == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "INGEST_UNAVAILABLE", "ingestion pipeline not configured")
		return
	}

	game := r.PathValue("game")
	if game == "" || len(game) > MaxGameIDLength {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_GAME", "invalid game identifier")
		return
	}

	catalog, err := h.ingestor.ValidateGame(game)
	if err != nil {
		if errors.Is(err, ingest.ErrCatalogNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "CATALOG_NOT_FOUND", "no catalog for game")
			return
		}
		writeError(w, h.logger, http.StatusUnprocessableEntity, "INVALID_CATALOG", err.Error())
		return
	}

	sources := make([]CatalogSource, 0, len(catalog.Sources))
	for _, src := range catalog.Sources {
		sources = append(sources, CatalogSource{
			SourceType:  src.SourceType,
			URL:         src.URL,
			Description: src.Description,
			Row:         src.Row,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"game":    game,
		"valid":   true,
		"sources": sources,
		"total":   len(sources),
	})
}

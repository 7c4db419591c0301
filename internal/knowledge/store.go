// Package knowledge manages per-game knowledge documents with vector search.
//
// Documents are embedded with a Genkit ai.Embedder and stored in PostgreSQL
// with pgvector. Search queries each requested source type, merges the rows,
// and orders them by cosine similarity, which mirrors the per-source-type
// collection layout the store replaced.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"

	"github.com/lakitu0/lakitu/internal/sqlc"
)

// searchTimeout bounds embedding generation plus vector search per request.
const searchTimeout = 10 * time.Second

// Querier defines the database operations Store needs. The interface is
// defined by the consumer (like http.RoundTripper, sql.Driver) so tests can
// substitute a mock for the sqlc-generated implementation.
type Querier interface {
	UpsertKnowledgeDocument(ctx context.Context, arg sqlc.UpsertKnowledgeDocumentParams) error
	SearchKnowledge(ctx context.Context, arg sqlc.SearchKnowledgeParams) ([]sqlc.SearchKnowledgeRow, error)
	CountKnowledgeByGame(ctx context.Context, game string) (int64, error)
	KnowledgeStatsByGame(ctx context.Context, game string) ([]sqlc.KnowledgeStatsByGameRow, error)
	ListKnowledgeGames(ctx context.Context) ([]sqlc.ListKnowledgeGamesRow, error)
	DeleteKnowledgeByGame(ctx context.Context, game string) (int64, error)
	DeleteKnowledgeDocument(ctx context.Context, id string) error
}

// Store manages knowledge documents with vector search capabilities.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a new Store.
//
// Example (production):
//
//	store := knowledge.New(sqlc.New(dbPool), embedder, slog.Default())
//
// Example (testing):
//
//	store := knowledge.New(mockQuerier, mockEmbedder, log.NewNop())
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Add embeds the document content and upserts it (ON CONFLICT DO UPDATE).
func (s *Store) Add(ctx context.Context, doc Document) error {
	if doc.Game == "" {
		return fmt.Errorf("document %q has no game", doc.ID)
	}
	if !ValidSourceType(doc.SourceType) {
		return fmt.Errorf("document %q has invalid source type %q", doc.ID, doc.SourceType)
	}

	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding document %q: %w", doc.ID, err)
	}

	createdAt := pgtype.Timestamptz{
		Time:  doc.CreatedAt,
		Valid: !doc.CreatedAt.IsZero(),
	}

	err = s.queries.UpsertKnowledgeDocument(ctx, sqlc.UpsertKnowledgeDocumentParams{
		ID:          doc.ID,
		Game:        doc.Game,
		SourceType:  doc.SourceType,
		Title:       doc.Title,
		Url:         doc.URL,
		Description: doc.Description,
		Content:     doc.Content,
		ChunkIndex:  int32(doc.ChunkIndex),
		Embedding:   &embedding,
		CreatedAt:   createdAt,
	})
	if err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document",
		"id", doc.ID,
		"game", doc.Game,
		"source_type", doc.SourceType,
		"content_length", len(doc.Content))
	return nil
}

// Search performs semantic search over a game's knowledge.
// Each requested source type is queried separately, results are merged and
// ordered by similarity descending, then cut to the configured topK.
//
// Example:
//
//	results, err := store.Search(ctx, "elden_ring", "how to beat Margit",
//	    knowledge.WithTopK(3),
//	    knowledge.WithSourceTypes(knowledge.SourceTypeWiki))
func (s *Store) Search(ctx context.Context, game, query string, opts ...SearchOption) ([]Result, error) {
	if game == "" {
		return nil, fmt.Errorf("game must not be empty")
	}
	cfg := buildSearchConfig(opts)
	for _, st := range cfg.sourceTypes {
		if !ValidSourceType(st) {
			return nil, fmt.Errorf("invalid source type %q", st)
		}
	}

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var merged []Result
	for _, sourceType := range cfg.sourceTypes {
		rows, err := s.queries.SearchKnowledge(queryCtx, sqlc.SearchKnowledgeParams{
			Embedding:   &embedding,
			Game:        game,
			SourceType:  sourceType,
			ResultLimit: int32(cfg.topK),
		})
		if err != nil {
			return nil, fmt.Errorf("searching %s/%s: %w", game, sourceType, err)
		}
		merged = append(merged, rowsToResults(rows)...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	if len(merged) > cfg.topK {
		merged = merged[:cfg.topK]
	}

	s.logger.Debug("knowledge search",
		"game", game,
		"results", len(merged),
		"top_k", cfg.topK)
	return merged, nil
}

// Count returns the number of documents stored for a game.
func (s *Store) Count(ctx context.Context, game string) (int64, error) {
	count, err := s.queries.CountKnowledgeByGame(ctx, game)
	if err != nil {
		return 0, fmt.Errorf("counting documents for %q: %w", game, err)
	}
	return count, nil
}

// GameStats returns per-source-type document counts for a game.
func (s *Store) GameStats(ctx context.Context, game string) (Stats, error) {
	rows, err := s.queries.KnowledgeStatsByGame(ctx, game)
	if err != nil {
		return Stats{}, fmt.Errorf("stats for %q: %w", game, err)
	}

	stats := Stats{
		Game:         game,
		BySourceType: make(map[string]int64, len(rows)),
	}
	for _, row := range rows {
		stats.BySourceType[row.SourceType] = row.DocumentCount
		stats.Total += row.DocumentCount
	}
	return stats, nil
}

// Games lists every game present in the store with its document count.
func (s *Store) Games(ctx context.Context) (map[string]int64, error) {
	rows, err := s.queries.ListKnowledgeGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}

	games := make(map[string]int64, len(rows))
	for _, row := range rows {
		games[row.Game] = row.DocumentCount
	}
	return games, nil
}

// DeleteGame removes all documents for a game and returns the number removed.
func (s *Store) DeleteGame(ctx context.Context, game string) (int64, error) {
	deleted, err := s.queries.DeleteKnowledgeByGame(ctx, game)
	if err != nil {
		return 0, fmt.Errorf("deleting documents for %q: %w", game, err)
	}

	s.logger.Info("deleted game knowledge", "game", game, "documents", deleted)
	return deleted, nil
}

// Delete removes a single document by ID.
func (s *Store) Delete(ctx context.Context, docID string) error {
	if err := s.queries.DeleteKnowledgeDocument(ctx, docID); err != nil {
		return fmt.Errorf("deleting document %q: %w", docID, err)
	}

	s.logger.Debug("deleted document", "id", docID)
	return nil
}

// embed generates an embedding vector for the given text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	// The model defaults to larger vectors; truncate to the schema's
	// dimensionality via Matryoshka Representation Learning.
	dim := VectorDimension
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding returned")
	}

	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// rowsToResults converts sqlc search rows to business model Results.
func rowsToResults(rows []sqlc.SearchKnowledgeRow) []Result {
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var createdAt time.Time
		if row.CreatedAt.Valid {
			createdAt = row.CreatedAt.Time
		}

		results = append(results, Result{
			Document: Document{
				ID:          row.ID,
				Game:        row.Game,
				SourceType:  row.SourceType,
				Title:       row.Title,
				URL:         row.Url,
				Description: row.Description,
				Content:     row.Content,
				ChunkIndex:  int(row.ChunkIndex),
				CreatedAt:   createdAt,
			},
			Similarity: row.Similarity,
		})
	}
	return results
}

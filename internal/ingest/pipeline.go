package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/log"
)

// Adder is the slice of the knowledge store the pipeline writes to.
type Adder interface {
	Add(ctx context.Context, doc knowledge.Document) error
}

// Result summarizes one ProcessGame run.
type Result struct {
	Game      string   `json:"game"`
	Sources   int      `json:"sources"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Chunks    int      `json:"chunks"`
	Errors    []string `json:"errors,omitempty"`
}

// Pipeline turns a game's source catalog into embedded knowledge
// documents.
type Pipeline struct {
	catalogDir string
	fetcher    *Fetcher
	store      Adder
	logger     log.Logger
}

func NewPipeline(catalogDir string, fetcher *Fetcher, store Adder, logger log.Logger) *Pipeline {
	return &Pipeline{
		catalogDir: catalogDir,
		fetcher:    fetcher,
		store:      store,
		logger:     logger,
	}
}

// ProcessGame ingests every source in a game's catalog. Individual
// source failures are recorded in the result and do not abort the run.
func (p *Pipeline) ProcessGame(ctx context.Context, game string) (*Result, error) {
	catalog, err := LoadCatalog(p.catalogDir, game)
	if err != nil {
		return nil, err
	}

	result := &Result{Game: game, Sources: len(catalog.Sources)}
	for _, src := range catalog.Sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		chunks, err := p.processSource(ctx, game, src)
		if err != nil {
			p.logger.Warn("source ingestion failed",
				"game", game, "url", src.URL, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", src.URL, err))
			result.Skipped++
			continue
		}
		result.Processed++
		result.Chunks += chunks
	}

	p.logger.Info("game ingestion complete",
		"game", game,
		"sources", result.Sources,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"chunks", result.Chunks)
	return result, nil
}

// ValidateGame loads and validates a game's catalog without fetching
// or storing anything.
func (p *Pipeline) ValidateGame(game string) (*Catalog, error) {
	return LoadCatalog(p.catalogDir, game)
}

func (p *Pipeline) processSource(ctx context.Context, game string, src Source) (int, error) {
	page, err := p.loadPage(ctx, src)
	if err != nil {
		return 0, err
	}

	chunks := Chunk(page.Content)
	if len(chunks) == 0 {
		return 0, ErrContentTooShort
	}

	now := time.Now()
	for i, chunk := range chunks {
		doc := knowledge.Document{
			ID:          documentID(game, src.SourceType, src.URL, i),
			Game:        game,
			SourceType:  src.SourceType,
			Title:       page.Title,
			URL:         src.URL,
			Description: src.Description,
			Content:     chunk,
			ChunkIndex:  i,
			CreatedAt:   now,
		}
		if err := p.store.Add(ctx, doc); err != nil {
			return i, fmt.Errorf("store chunk %d: %w", i, err)
		}
	}
	return len(chunks), nil
}

// loadPage produces the text for a source. YouTube videos are not
// fetched; their curated catalog description is the content.
func (p *Pipeline) loadPage(ctx context.Context, src Source) (*Page, error) {
	if src.SourceType == knowledge.SourceTypeYouTube {
		content := Cleanup(src.Description)
		if content == "" {
			return nil, fmt.Errorf("youtube source %s has no description", src.URL)
		}
		return &Page{Title: src.Description, Content: content}, nil
	}

	body, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	return Extract(src.SourceType, src.URL, body)
}

// documentID derives a stable chunk identifier from the source URL so
// re-ingesting a catalog upserts instead of duplicating.
func documentID(game, sourceType, sourceURL string, chunkIndex int) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return fmt.Sprintf("%s_%s_%s_%d", game, sourceType, hex.EncodeToString(sum[:4]), chunkIndex)
}

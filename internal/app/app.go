// Package app wires the application together: configuration, database,
// Genkit, the knowledge and screenshot stores, game detection and the
// chat agent.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakitu0/lakitu/internal/chat"
	"github.com/lakitu0/lakitu/internal/config"
	"github.com/lakitu0/lakitu/internal/game"
	"github.com/lakitu0/lakitu/internal/ingest"
	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/screenshot"
	"github.com/lakitu0/lakitu/internal/session"
)

// App is the application container. Construct with Setup, release with
// Close.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Knowledge   *knowledge.Store
	Screenshots *screenshot.Store
	Sessions    *session.Store
	Detector    *game.Detector
	Agent       *chat.Agent

	traceCleanup func()
}

// Close releases all resources in reverse construction order.
func (a *App) Close() error {
	a.Logger.Info("shutting down")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
	if a.traceCleanup != nil {
		a.traceCleanup()
	}
	return nil
}

// NewPipeline builds a knowledge ingestion pipeline from the app's
// configuration and stores.
func (a *App) NewPipeline() (*ingest.Pipeline, error) {
	fetcher, err := ingest.NewFetcher(a.fetchConfig())
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(a.Config.GamesDir, fetcher, a.Knowledge, a.Logger), nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/lakitu0/lakitu/db"
	"github.com/lakitu0/lakitu/internal/chat"
	"github.com/lakitu0/lakitu/internal/config"
	"github.com/lakitu0/lakitu/internal/database"
	"github.com/lakitu0/lakitu/internal/game"
	"github.com/lakitu0/lakitu/internal/ingest"
	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/observability"
	"github.com/lakitu0/lakitu/internal/screenshot"
	"github.com/lakitu0/lakitu/internal/session"
	"github.com/lakitu0/lakitu/internal/sqlc"
)

// Setup initializes the full application. On error everything already
// constructed is released.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must be registered before genkit.Init so the provider
	// carries the span processor.
	if cfg.Datadog.Enabled {
		a.traceCleanup = observability.SetupDatadog(ctx, observability.Config{
			AgentHost:   cfg.Datadog.AgentHost,
			Environment: cfg.Datadog.Environment,
			ServiceName: cfg.Datadog.ServiceName,
		})
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, err
	}
	a.DBPool = pool
	queries := sqlc.New(pool)

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Embedder = provideEmbedder(g, cfg)
	if a.Embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	a.Knowledge = knowledge.New(queries, a.Embedder, logger)
	a.Sessions = session.New(queries, logger)

	cipher, err := provideCipher(cfg)
	if err != nil {
		return nil, err
	}
	a.Screenshots = screenshot.NewStore(queries, cipher, logger)

	a.Detector = game.NewDetector(a.Screenshots, logger)

	agent, err := chat.New(chat.Config{
		Genkit:      g,
		Sessions:    a.Sessions,
		Knowledge:   a.Knowledge,
		Screenshots: a.Screenshots,
		Detector:    a.Detector,
		Logger:      logger,
		ModelName:   providerModelName(cfg.ModelName),
		Language:    cfg.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat agent: %w", err)
	}
	a.Agent = agent

	logger.Info("application initialized", "config", cfg)
	return a, nil
}

// NewCaptureService builds the background screenshot capture daemon.
func (a *App) NewCaptureService() (*screenshot.Service, error) {
	command := a.Config.Capture.Command
	if command == "" {
		return nil, errors.New("capture.command is not configured")
	}
	capturer, err := screenshot.NewCommandCapturer(command)
	if err != nil {
		return nil, err
	}
	interval := time.Duration(a.Config.Capture.IntervalSeconds) * time.Second
	return screenshot.NewService(a.Screenshots, capturer, nil, interval,
		a.Config.Capture.LockFile, a.Logger), nil
}

func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	promptDir := cfg.PromptDir
	if promptDir == "" {
		promptDir = "prompts"
	}

	g := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{}),
		genkit.WithPromptDir(promptDir),
	)
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	return g, nil
}

// provideEmbedder looks up the Gemini embedder configured for the
// knowledge store.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

func provideCipher(cfg *config.Config) (*screenshot.Cipher, error) {
	key, err := screenshot.LoadOrCreateKey(cfg.Capture.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("loading screenshot key: %w", err)
	}
	return screenshot.NewCipher(key)
}

// providerModelName qualifies a bare Gemini model name for Genkit.
func providerModelName(name string) string {
	if name == "" {
		return ""
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name
		}
	}
	return "googleai/" + name
}

func (a *App) fetchConfig() ingest.FetchConfig {
	s := a.Config.Scraper
	return ingest.FetchConfig{
		UserAgent:   s.UserAgent,
		Parallelism: s.Parallelism,
		Delay:       time.Duration(s.DelayMs) * time.Millisecond,
		Timeout:     time.Duration(s.TimeoutMs) * time.Millisecond,
	}
}

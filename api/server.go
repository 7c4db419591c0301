// Package api exposes the assistant over a local HTTP REST API.
//
// Endpoints:
//
//	POST   /api/chat                        synchronous chat (Genkit flow handler)
//	POST   /api/chat/stream                 streaming chat (Server-Sent Events)
//	GET    /api/sessions                    list sessions
//	POST   /api/sessions                    create session
//	GET    /api/sessions/{id}               fetch one session
//	DELETE /api/sessions/{id}               delete session and its messages
//	GET    /api/sessions/{id}/messages      conversation history
//	POST   /api/knowledge/search            vector search over game knowledge
//	GET    /api/knowledge/games             per-game document counts
//	GET    /api/knowledge/games/{game}      per-game stats by source type
//	DELETE /api/knowledge/games/{game}      drop a game's documents
//	POST   /api/knowledge/ingest            run the catalog ingestion pipeline
//	GET    /api/knowledge/games/{game}/catalog  validate a game's catalog CSV
//	GET    /api/screenshots                 recent screenshot metadata
//	GET    /api/screenshots/stats           archive statistics
//	GET    /api/screenshots/capture         capture loop status
//	POST   /api/screenshots/capture/start   start the capture loop
//	POST   /api/screenshots/capture/stop    stop the capture loop
//	GET    /api/screenshots/{id}            metadata plus decrypted image
//	DELETE /api/screenshots/{id}            delete a screenshot
//	GET    /api/games                       known game mappings
//	POST   /api/games/detect                detect game from a message
//	GET    /health, GET /ready              probes
//
// The server binds to loopback by default; it carries no authentication and
// must not be exposed beyond the local machine.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/lakitu0/lakitu/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:3500"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout limits header reads to avoid slow-client stalls.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because chat responses stream for a while.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout applies to keep-alive connections between requests.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health      *HealthHandler
	sessions    *SessionHandler
	chat        *ChatHandler
	knowledge   *KnowledgeHandler
	screenshots *ScreenshotHandler
	games       *GameHandler
}

// Deps bundles everything the route handlers need.
type Deps struct {
	Pinger      Pinger
	Sessions    SessionStore
	Flow        ChatFlow
	Knowledge   KnowledgeStore
	Screenshots ScreenshotStore
	Capture     CaptureController
	Detector    GameDetector
	Ingestor    Ingestor
	Logger      log.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:         mux,
		logger:      logger,
		health:      NewHealthHandler(deps.Pinger, logger),
		sessions:    NewSessionHandler(deps.Sessions, logger),
		chat:        NewChatHandler(deps.Flow, logger),
		knowledge:   NewKnowledgeHandler(deps.Knowledge, deps.Ingestor, logger),
		screenshots: NewScreenshotHandler(deps.Screenshots, deps.Capture, logger),
		games:       NewGameHandler(deps.Detector, logger),
	}

	s.health.RegisterRoutes(mux)
	s.sessions.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	s.knowledge.RegisterRoutes(mux)
	s.screenshots.RegisterRoutes(mux)
	s.games.RegisterRoutes(mux)

	return s
}

// Handler returns the full handler chain: recovery → logging → routes.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

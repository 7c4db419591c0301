package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lakitu0/lakitu/internal/log"
)

// GameDetector is the slice of the game detector the handler uses.
type GameDetector interface {
	Detect(ctx context.Context, message string) string
	Games() []string
}

// GameHandler serves game detection endpoints.
type GameHandler struct {
	detector GameDetector
	logger   log.Logger
}

// NewGameHandler creates a game handler.
func NewGameHandler(detector GameDetector, logger log.Logger) *GameHandler {
	return &GameHandler{detector: detector, logger: logger}
}

// RegisterRoutes registers game routes on the given mux.
func (h *GameHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/games", h.list)
	mux.HandleFunc("POST /api/games/detect", h.detect)
}

// list returns the identifiers of all known games.
func (h *GameHandler) list(w http.ResponseWriter, _ *http.Request) {
	games := h.detector.Games()
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"games": games,
		"total": len(games),
	})
}

// DetectRequest is the request body for game detection.
type DetectRequest struct {
	Message string `json:"message"`
}

// detect runs game detection over the message, running processes, and
// recent screenshots. An empty game means nothing was detected.
func (h *GameHandler) detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	game := h.detector.Detect(r.Context(), req.Message)
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"game":     game,
		"detected": game != "",
	})
}

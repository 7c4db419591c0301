package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/session"
)

// Session validation bounds.
const (
	MaxTitleLength     = 200
	MaxModelNameLength = 100
	MaxGameNameLength  = 100
	DefaultListLimit   = 100
	MaxListLimit       = 1000
	MaxListOffset      = 100000
	MaxHistoryLimit    = 1000
)

// SessionStore is the slice of the session store the handler uses.
type SessionStore interface {
	Create(ctx context.Context, title, modelName, game string) (*session.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*session.Session, error)
	List(ctx context.Context, limit, offset int32) ([]*session.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, id uuid.UUID, limit int32) ([]session.Message, error)
}

// SessionHandler serves session CRUD and history endpoints.
type SessionHandler struct {
	store  SessionStore
	logger log.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(store SessionStore, logger log.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("GET /api/sessions/{id}", h.get)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.delete)
	mux.HandleFunc("GET /api/sessions/{id}/messages", h.history)
}

// list returns sessions newest first.
// Query parameters: limit (default 100, max 1000) and offset.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit)
	offset := parseIntParam(r, "offset", 0, 0, MaxListOffset)

	// #nosec G115 -- limit and offset are clamped to MaxListLimit and MaxListOffset
	sessions, err := h.store.List(r.Context(), int32(limit), int32(offset))
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "LIST_FAILED", "failed to list sessions")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
		"limit":    limit,
		"offset":   offset,
	})
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	Title     string `json:"title"`
	ModelName string `json:"model_name"`
	Game      string `json:"game"`
}

// create creates a new session. All fields are optional.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	if len(req.Title) > MaxTitleLength {
		writeError(w, h.logger, http.StatusBadRequest, "TITLE_TOO_LONG", "title too long (max 200 characters)")
		return
	}
	if len(req.ModelName) > MaxModelNameLength {
		writeError(w, h.logger, http.StatusBadRequest, "MODEL_NAME_TOO_LONG", "model_name too long (max 100 characters)")
		return
	}
	if len(req.Game) > MaxGameNameLength {
		writeError(w, h.logger, http.StatusBadRequest, "GAME_TOO_LONG", "game too long (max 100 characters)")
		return
	}

	sess, err := h.store.Create(r.Context(), req.Title, req.ModelName, req.Game)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "CREATE_FAILED", "failed to create session")
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, sess)
}

// get returns a single session by ID.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "NOT_FOUND", "session not found")
			return
		}
		h.logger.Error("failed to get session", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "GET_FAILED", "failed to get session")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, sess)
}

// delete removes a session and its messages.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "NOT_FOUND", "session not found")
			return
		}
		h.logger.Error("failed to delete session", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "DELETE_FAILED", "failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// history returns the conversation messages for a session, oldest first.
// Query parameter: limit (default 200, max 1000).
func (h *SessionHandler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	limit := parseIntParam(r, "limit", 0, 0, MaxHistoryLimit)

	// #nosec G115 -- limit is clamped to MaxHistoryLimit
	messages, err := h.store.History(r.Context(), id, int32(limit))
	if err != nil {
		h.logger.Error("failed to load history", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "HISTORY_FAILED", "failed to load history")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"session_id": id,
		"messages":   messages,
		"total":      len(messages),
	})
}

// sessionID parses the {id} path segment, writing a 400 on failure.
func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_ID", "session id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

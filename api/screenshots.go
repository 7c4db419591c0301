package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/screenshot"
)

// Screenshot list bounds.
const (
	DefaultScreenshotLimit = 20
	MaxScreenshotLimit     = 200
)

// ScreenshotStore is the slice of the screenshot store the handler uses.
type ScreenshotStore interface {
	Recent(ctx context.Context, filter screenshot.Filter) ([]screenshot.Metadata, error)
	Get(ctx context.Context, id int64) (*screenshot.Metadata, []byte, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*screenshot.Stats, error)
}

// CaptureController starts and stops the background capture loop.
type CaptureController interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
}

// ScreenshotHandler serves the encrypted screenshot archive and controls
// the capture loop.
type ScreenshotHandler struct {
	store   ScreenshotStore
	capture CaptureController
	logger  log.Logger
}

// NewScreenshotHandler creates a screenshot handler. capture may be nil,
// in which case the capture control endpoints report 503.
func NewScreenshotHandler(store ScreenshotStore, capture CaptureController, logger log.Logger) *ScreenshotHandler {
	return &ScreenshotHandler{store: store, capture: capture, logger: logger}
}

// RegisterRoutes registers screenshot routes on the given mux.
func (h *ScreenshotHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/screenshots", h.list)
	mux.HandleFunc("GET /api/screenshots/stats", h.stats)
	mux.HandleFunc("GET /api/screenshots/capture", h.captureStatus)
	mux.HandleFunc("POST /api/screenshots/capture/start", h.captureStart)
	mux.HandleFunc("POST /api/screenshots/capture/stop", h.captureStop)
	mux.HandleFunc("GET /api/screenshots/{id}", h.get)
	mux.HandleFunc("DELETE /api/screenshots/{id}", h.delete)
}

// list returns recent screenshot metadata, newest first. Image data is
// never included; fetch individual screenshots for that.
// Query parameters:
//   - application: filter by application name
//   - since, until: RFC 3339 timestamps
//   - limit: max rows (default 20, max 200)
func (h *ScreenshotHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := screenshot.Filter{
		Application: r.URL.Query().Get("application"),
		Limit:       parseIntParam(r, "limit", DefaultScreenshotLimit, 1, MaxScreenshotLimit),
	}

	var ok bool
	if filter.Since, ok = parseTimeParam(r, "since"); !ok {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_SINCE", "since must be RFC 3339")
		return
	}
	if filter.Until, ok = parseTimeParam(r, "until"); !ok {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_UNTIL", "until must be RFC 3339")
		return
	}

	shots, err := h.store.Recent(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list screenshots", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "LIST_FAILED", "failed to list screenshots")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"screenshots": shots,
		"total":       len(shots),
	})
}

// get returns one screenshot's metadata together with the decrypted image
// as base64 PNG.
func (h *ScreenshotHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.screenshotID(w, r)
	if !ok {
		return
	}

	meta, image, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, screenshot.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "NOT_FOUND", "screenshot not found")
			return
		}
		h.logger.Error("failed to get screenshot", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "GET_FAILED", "failed to get screenshot")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"metadata": meta,
		"image":    base64.StdEncoding.EncodeToString(image),
	})
}

// delete removes a screenshot.
func (h *ScreenshotHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.screenshotID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, screenshot.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "NOT_FOUND", "screenshot not found")
			return
		}
		h.logger.Error("failed to delete screenshot", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "DELETE_FAILED", "failed to delete screenshot")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// stats returns archive totals, per-application counts, and date range.
func (h *ScreenshotHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to load screenshot stats", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "STATS_FAILED", "failed to load screenshot stats")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, stats)
}

// captureStatus reports whether the capture loop is running.
func (h *ScreenshotHandler) captureStatus(w http.ResponseWriter, r *http.Request) {
	if h.capture == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "CAPTURE_UNAVAILABLE", "capture service not configured")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"running": h.capture.Running()})
}

// captureStart starts the background capture loop. The loop outlives the
// request, so it runs on a context detached from the request's cancellation.
func (h *ScreenshotHandler) captureStart(w http.ResponseWriter, r *http.Request) {
	if h.capture == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "CAPTURE_UNAVAILABLE", "capture service not configured")
		return
	}

	if err := h.capture.Start(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, screenshot.ErrAlreadyRunning) {
			writeError(w, h.logger, http.StatusConflict, "ALREADY_RUNNING", "capture is already running")
			return
		}
		h.logger.Error("failed to start capture", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "START_FAILED", "failed to start capture")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"running": true})
}

// captureStop stops the background capture loop. Stopping an idle loop
// is not an error.
func (h *ScreenshotHandler) captureStop(w http.ResponseWriter, r *http.Request) {
	if h.capture == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "CAPTURE_UNAVAILABLE", "capture service not configured")
		return
	}
	h.capture.Stop()
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"running": false})
}

// screenshotID parses the {id} path segment, writing a 400 on failure.
func (h *ScreenshotHandler) screenshotID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_ID", "screenshot id must be a positive integer")
		return 0, false
	}
	return id, true
}

// parseTimeParam parses an optional RFC 3339 query parameter. The second
// return value is false when the parameter is present but malformed.
func parseTimeParam(r *http.Request, name string) (time.Time, bool) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

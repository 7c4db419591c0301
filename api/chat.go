package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/firebase/genkit/go/genkit"

	"github.com/lakitu0/lakitu/internal/chat"
	"github.com/lakitu0/lakitu/internal/log"
)

// ChatFlow is the Genkit flow serving the chat endpoints.
type ChatFlow = *chat.Flow

// ChatHandler serves chat requests through the Genkit flow.
//
// POST /api/chat returns a single JSON response. POST /api/chat/stream
// emits Server-Sent Events so clients can render tokens as they arrive.
// Both paths run the same flow.
type ChatHandler struct {
	flow   ChatFlow
	logger log.Logger
}

// NewChatHandler creates a chat handler around the given flow.
func NewChatHandler(flow ChatFlow, logger log.Logger) *ChatHandler {
	return &ChatHandler{flow: flow, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.flow == nil {
		h.logger.Warn("chat flow is nil, chat endpoints not registered")
		return
	}
	mux.Handle("POST /api/chat", genkit.Handler(h.flow))
	mux.HandleFunc("POST /api/chat/stream", h.handleStream)
}

// SSEEvent is one Server-Sent Event payload.
type SSEEvent struct {
	// Event is "chunk", "done", or "error".
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SSEChunkData is the payload of "chunk" events.
type SSEChunkData struct {
	Text string `json:"text"`
}

// SSEDoneData is the payload of "done" events.
type SSEDoneData struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
	Game      string `json:"game,omitempty"`
}

// SSEErrorData is the payload of "error" events.
type SSEErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleStream runs the chat flow and relays partial text as SSE events.
//
// Request body matches chat.Input. Event types:
//   - chunk: partial text {"text": "..."}
//   - done:  final output {"response": "...", "sessionId": "...", "game": "..."}
//   - error: {"code": "...", "message": "..."}
func (h *ChatHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported by response writer")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var input chat.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeSSEError(w, flusher, "INVALID_REQUEST", fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if input.SessionID == "" {
		h.writeSSEError(w, flusher, "MISSING_SESSION_ID", "sessionId is required")
		return
	}
	if input.Query == "" {
		h.writeSSEError(w, flusher, "MISSING_QUERY", "query is required")
		return
	}

	ctx := r.Context()
	h.logger.Info("SSE stream started", "sessionId", input.SessionID)

	var finalOutput chat.Output
	var streamErr error
	hasChunks := false

	for streamValue, err := range h.flow.Stream(ctx, input) {
		select {
		case <-ctx.Done():
			h.logger.Info("client disconnected", "sessionId", input.SessionID)
			return
		default:
		}

		if err != nil {
			streamErr = err
			break
		}

		if streamValue.Done {
			finalOutput = streamValue.Output
			break
		}

		if streamValue.Stream.Text != "" {
			hasChunks = true
			h.writeSSEChunk(w, flusher, streamValue.Stream.Text)
		}
	}

	if streamErr != nil {
		h.logger.Error("stream failed", "error", streamErr, "sessionId", input.SessionID)
		h.writeSSEError(w, flusher, "STREAM_ERROR", streamErr.Error())
		return
	}

	h.writeSSEDone(w, flusher, finalOutput)
	h.logger.Info("SSE stream completed",
		"sessionId", input.SessionID,
		"hasChunks", hasChunks,
		"responseLen", len(finalOutput.Response))
}

func (h *ChatHandler) writeSSEChunk(w http.ResponseWriter, flusher http.Flusher, text string) {
	data, _ := json.Marshal(SSEChunkData{Text: text})
	fmt.Fprintf(w, "event: chunk\ndata: %s\n\n", data)
	flusher.Flush()
}

func (h *ChatHandler) writeSSEDone(w http.ResponseWriter, flusher http.Flusher, out chat.Output) {
	data, _ := json.Marshal(SSEDoneData{Response: out.Response, SessionID: out.SessionID, Game: out.Game})
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", data)
	flusher.Flush()
}

func (h *ChatHandler) writeSSEError(w http.ResponseWriter, flusher http.Flusher, code, message string) {
	data, _ := json.Marshal(SSEErrorData{Code: code, Message: message})
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	flusher.Flush()
}

package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
)

// Input is the request payload for the chat flow.
type Input struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
	// ImageData is an optional base64-encoded PNG screenshot.
	ImageData string `json:"imageData,omitempty"`
}

// Output is the response payload from the chat flow.
type Output struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
	Game      string `json:"game,omitempty"`
}

// StreamChunk carries partial text during streaming.
type StreamChunk struct {
	Text string `json:"text"`
}

// FlowName is the registered name of the chat flow in Genkit.
const FlowName = "lakitu/chat"

// Flow is the chat agent's Genkit streaming flow type.
type Flow = core.Flow[Input, Output, StreamChunk]

// Flow registration is global in Genkit and panics on re-registration,
// so the flow is a package-level singleton.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the chat flow singleton, defining it on first call.
func NewFlow(g *genkit.Genkit, agent *Agent) *Flow {
	flowOnce.Do(func() {
		flow = agent.defineFlow(g)
	})
	return flow
}

// ResetFlowForTesting resets the singleton so tests can register with
// different configurations. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

func (a *Agent) defineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, StreamChunk) error) (Output, error) {
			sessionID, err := uuid.Parse(input.SessionID)
			if err != nil {
				return Output{SessionID: input.SessionID}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
			}

			var image []byte
			if input.ImageData != "" {
				image, err = base64.StdEncoding.DecodeString(input.ImageData)
				if err != nil {
					return Output{SessionID: input.SessionID}, fmt.Errorf("decoding image: %w", err)
				}
			}

			var callback StreamCallback
			if streamCb != nil {
				callback = func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
					if chunk == nil {
						return nil
					}
					for _, part := range chunk.Content {
						if part.Text == "" {
							continue
						}
						if streamErr := streamCb(ctx, StreamChunk{Text: part.Text}); streamErr != nil {
							return streamErr
						}
					}
					return nil
				}
			}

			resp, err := a.ExecuteStream(ctx, sessionID, input.Query, image, callback)
			if err != nil {
				return Output{SessionID: input.SessionID}, err
			}

			return Output{
				Response:  resp.FinalText,
				SessionID: input.SessionID,
				Game:      resp.Game,
			}, nil
		},
	)
}

// Package chat runs the conversational agent: it grounds each user
// message in the detected game's knowledge base and screenshot history,
// then generates a response through Genkit with retry and circuit
// breaking around the model call.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/screenshot"
	"github.com/lakitu0/lakitu/internal/session"
)

const (
	// PromptName is the Dotprompt file the agent runs,
	// prompts/lakitu.prompt.
	PromptName = "lakitu"

	// fallbackResponse is returned when the model produces no text.
	fallbackResponse = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

var (
	ErrInvalidSession  = errors.New("chat: invalid session")
	ErrExecutionFailed = errors.New("chat: execution failed")
)

// StreamCallback receives each chunk of a streaming response. Returning
// an error aborts the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// KnowledgeSearcher is the knowledge store surface the agent needs.
type KnowledgeSearcher interface {
	Search(ctx context.Context, game, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// GameDetector resolves the game a message is about.
type GameDetector interface {
	Detect(ctx context.Context, message string) string
}

// ScreenshotReader exposes capture history for grounding.
type ScreenshotReader interface {
	Recent(ctx context.Context, filter screenshot.Filter) ([]screenshot.Metadata, error)
	Stats(ctx context.Context) (*screenshot.Stats, error)
}

// Response is the complete result of one agent turn.
type Response struct {
	FinalText string
	Game      string
}

// Config carries the agent's dependencies and tuning.
type Config struct {
	Genkit      *genkit.Genkit
	Sessions    *session.Store
	Knowledge   KnowledgeSearcher
	Screenshots ScreenshotReader
	Detector    GameDetector
	Logger      log.Logger

	ModelName string // Provider-qualified model name overriding the prompt file
	Language  string

	RetryConfig          RetryConfig
	CircuitBreakerConfig CircuitBreakerConfig
	RateLimiter          *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("chat: genkit instance is required")
	}
	if cfg.Sessions == nil {
		return errors.New("chat: session store is required")
	}
	if cfg.Logger == nil {
		return errors.New("chat: logger is required")
	}
	return nil
}

// Agent is the conversational core. It is stateless per request and
// safe for concurrent use; all configuration is captured immutably at
// construction.
type Agent struct {
	modelName      string
	languagePrompt string

	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter

	g           *genkit.Genkit
	sessions    *session.Store
	knowledge   KnowledgeSearcher
	screenshots ScreenshotReader
	detector    GameDetector
	logger      log.Logger
	prompt      ai.Prompt
}

func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	languagePrompt := cfg.Language
	if languagePrompt == "" || languagePrompt == "auto" {
		languagePrompt = "the same language as the user's input (auto-detect)"
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}
	cbConfig := cfg.CircuitBreakerConfig
	if cbConfig.FailureThreshold == 0 {
		cbConfig = DefaultCircuitBreakerConfig()
	}
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	a := &Agent{
		modelName:      cfg.ModelName,
		languagePrompt: languagePrompt,
		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(cbConfig),
		rateLimiter:    rl,
		g:              cfg.Genkit,
		sessions:       cfg.Sessions,
		knowledge:      cfg.Knowledge,
		screenshots:    cfg.Screenshots,
		detector:       cfg.Detector,
		logger:         cfg.Logger,
	}

	a.prompt = genkit.LookupPrompt(a.g, PromptName)
	if a.prompt == nil {
		return nil, fmt.Errorf("dotprompt %q not found: ensure the prompts directory is configured", PromptName)
	}

	a.logger.Info("chat agent initialized", "model", a.modelName)
	return a, nil
}

// Execute runs one non-streaming turn.
func (a *Agent) Execute(ctx context.Context, sessionID uuid.UUID, input string, image []byte) (*Response, error) {
	return a.ExecuteStream(ctx, sessionID, input, image, nil)
}

// ExecuteStream runs one turn with optional streaming output. image may
// be nil; when set it is sent to the model as an inline PNG alongside
// the grounded message.
func (a *Agent) ExecuteStream(ctx context.Context, sessionID uuid.UUID, input string, image []byte, callback StreamCallback) (*Response, error) {
	game := ""
	if a.detector != nil {
		game = a.detector.Detect(ctx, input)
	}

	grounded := a.groundMessage(ctx, input, game, len(image) > 0)

	history, err := a.sessions.History(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	messages := make([]*ai.Message, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Role {
		case session.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(msg.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(msg.Content)))
		}
	}

	userParts := []*ai.Part{ai.NewTextPart(grounded)}
	if len(image) > 0 {
		userParts = append(userParts, ai.NewMediaPart("image/png",
			"data:image/png;base64,"+base64.StdEncoding.EncodeToString(image)))
	}
	messages = append(messages, ai.NewUserMessage(userParts...))

	promptInput := map[string]any{
		"language":     a.languagePrompt,
		"current_date": time.Now().Format("2006-01-02"),
	}
	if game != "" {
		promptInput["game"] = game
	}

	opts := []ai.PromptExecuteOption{
		ai.WithInput(promptInput),
		ai.WithMessagesFn(func(_ context.Context, _ any) ([]*ai.Message, error) {
			return messages, nil
		}),
	}
	if a.modelName != "" {
		opts = append(opts, ai.WithModelName(a.modelName))
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(callback)))
	}

	if err := a.circuitBreaker.Allow(); err != nil {
		a.logger.Warn("circuit breaker open, rejecting request",
			"state", a.circuitBreaker.State().String())
		return nil, fmt.Errorf("service unavailable: %w", err)
	}

	resp, err := a.executeWithRetry(ctx, opts)
	if err != nil {
		a.circuitBreaker.Failure()
		return nil, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}
	a.circuitBreaker.Success()

	responseText := resp.Text()
	if strings.TrimSpace(responseText) == "" {
		a.logger.Warn("model returned empty response", "session_id", sessionID)
		responseText = fallbackResponse
	}

	// Persist the raw user message, not the grounded one, so history
	// replays stay free of injected context.
	if err := a.sessions.AddMessages(ctx, sessionID, []session.Message{
		{Role: session.RoleUser, Content: input},
		{Role: session.RoleAssistant, Content: responseText},
	}); err != nil {
		a.logger.Warn("saving conversation turn", "error", err)
	}

	return &Response{FinalText: responseText, Game: game}, nil
}

// Title generation constants.
const (
	titleTimeout       = 5 * time.Second
	titleInputMaxRunes = 500
	titleMaxRunes      = 80
)

const titlePrompt = `Generate a concise title (max 80 characters) for a chat session based on this first message.
The title should capture the main topic or intent.
Return ONLY the title text, no quotes, no explanations, no punctuation at the end.

Message: %s

Title:`

// GenerateTitle produces a short session title from the first user
// message. Best effort: returns "" on failure.
func (a *Agent) GenerateTitle(ctx context.Context, userMessage string) string {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	userMessage = truncateRunes(userMessage, titleInputMaxRunes)

	opts := []ai.GenerateOption{
		ai.WithPrompt(titlePrompt, userMessage),
	}
	if a.modelName != "" {
		opts = append(opts, ai.WithModelName(a.modelName))
	}

	response, err := genkit.Generate(ctx, a.g, opts...)
	if err != nil {
		a.logger.Debug("title generation failed", "error", err)
		return ""
	}

	title := strings.TrimSpace(response.Text())
	if len([]rune(title)) > titleMaxRunes {
		title = truncateRunes(title, titleMaxRunes-3) + "..."
	}
	return title
}

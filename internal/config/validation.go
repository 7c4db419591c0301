package config

import (
	"fmt"
	"os"
	"strings"
)

// validSSLModes are the PostgreSQL SSL modes accepted by pgx.
var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Validate performs range and presence checks across the configuration.
// Called by Load() so invalid configuration fails fast at startup.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %.2f (must be between 0 and 2)", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 1_000_000 {
		return fmt.Errorf("%w: %d (must be between 1 and 1000000)", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (must be between 1 and 65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}

	if _, ok := validSSLModes[c.PostgresSSLMode]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	if c.Capture.IntervalSeconds < 1 || c.Capture.IntervalSeconds > 3600 {
		return fmt.Errorf("%w: %d (must be between 1 and 3600 seconds)",
			ErrInvalidCaptureInterval, c.Capture.IntervalSeconds)
	}

	if c.Scraper.Parallelism < 1 || c.Scraper.Parallelism > 16 {
		return fmt.Errorf("%w: parallelism %d (must be between 1 and 16)",
			ErrInvalidScraperSetting, c.Scraper.Parallelism)
	}
	if c.Scraper.DelayMs < 0 || c.Scraper.TimeoutMs < 1 {
		return fmt.Errorf("%w: delay_ms=%d timeout_ms=%d",
			ErrInvalidScraperSetting, c.Scraper.DelayMs, c.Scraper.TimeoutMs)
	}

	if c.MaxHistoryMessages < 1 || c.MaxHistoryMessages > MaxAllowedHistoryMessages {
		return fmt.Errorf("invalid max_history_messages: %d (must be between 1 and %d)",
			c.MaxHistoryMessages, MaxAllowedHistoryMessages)
	}

	return nil
}

// ValidateAPIKey checks that the Gemini API key is present in the environment.
// Separate from Validate so offline commands (knowledge validate, sessions
// list) don't require a key.
func (c *Config) ValidateAPIKey() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", ErrMissingAPIKey)
	}
	return nil
}

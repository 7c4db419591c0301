// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.lakitu/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: Model selection, temperature, max tokens, embedder
//   - Storage: PostgreSQL connection (see storage.go)
//   - Knowledge: Games catalog directory, scraper settings
//   - Capture: Screenshot interval, capture command, encryption key file
//   - Observability: Datadog APM tracing
//
// Sensitive values (passwords) are never logged; the config directory uses
// 0750 permissions. Validation lives in validation.go with sentinel errors
// for Go-idiomatic checks with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidCaptureInterval indicates the capture interval is out of range.
	ErrInvalidCaptureInterval = errors.New("invalid capture interval")

	// ErrInvalidScraperSetting indicates a scraper setting is out of range.
	ErrInvalidScraperSetting = errors.New("invalid scraper setting")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions via
	// OutputDimensionality; the pgvector schema uses vector(768).
	DefaultEmbedderModel = "gemini-embedding-001"

	// EmbeddingDimensions is the vector width of the knowledge_documents table.
	EmbeddingDimensions = 768

	// DefaultModelName is the chat model used when the config does not override it.
	DefaultModelName = "gemini-2.5-flash-lite"

	// DefaultCaptureIntervalSeconds is the default screenshot capture cadence.
	DefaultCaptureIntervalSeconds = 30

	// DefaultMaxHistoryMessages is the default number of messages to load.
	DefaultMaxHistoryMessages int32 = 100

	// MaxAllowedHistoryMessages is the absolute maximum to prevent OOM.
	MaxAllowedHistoryMessages int32 = 10000
)

// ScraperConfig controls the knowledge ingestion fetcher.
type ScraperConfig struct {
	Parallelism int    `mapstructure:"parallelism" json:"parallelism"`
	DelayMs     int    `mapstructure:"delay_ms" json:"delay_ms"`
	TimeoutMs   int    `mapstructure:"timeout_ms" json:"timeout_ms"`
	UserAgent   string `mapstructure:"user_agent" json:"user_agent"`
}

// CaptureConfig controls the background screenshot capture service.
type CaptureConfig struct {
	// IntervalSeconds between captures. Default 30.
	IntervalSeconds int `mapstructure:"interval_seconds" json:"interval_seconds"`

	// Command is the external screenshot command. "{output}" is replaced
	// with the output file path. Empty selects a platform default.
	Command string `mapstructure:"command" json:"command"`

	// KeyFile holds the AES-256 key for screenshot encryption.
	// Created with 0600 permissions on first use.
	KeyFile string `mapstructure:"key_file" json:"key_file"`

	// LockFile guards against concurrent capture daemons.
	LockFile string `mapstructure:"lock_file" json:"lock_file"`
}

// DatadogConfig controls OTLP trace export to a local Datadog Agent.
type DatadogConfig struct {
	AgentHost   string `mapstructure:"agent_host" json:"agent_host"`
	Environment string `mapstructure:"environment" json:"environment"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
}

// Config stores application configuration.
// SECURITY: Sensitive fields are masked in LogValue().
type Config struct {
	// AI model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`
	Language    string  `mapstructure:"language" json:"language"`
	PromptDir   string  `mapstructure:"prompt_dir" json:"prompt_dir"`
	MaxTurns    int     `mapstructure:"max_turns" json:"max_turns"`

	// Conversation history configuration
	MaxHistoryMessages int32 `mapstructure:"max_history_messages" json:"max_history_messages"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Knowledge / RAG configuration
	EmbedderModel string        `mapstructure:"embedder_model" json:"embedder_model"`
	GamesDir      string        `mapstructure:"games_dir" json:"games_dir"`
	Scraper       ScraperConfig `mapstructure:"scraper" json:"scraper"`

	// Screenshot capture configuration
	Capture CaptureConfig `mapstructure:"capture" json:"capture"`

	// Observability configuration
	Datadog DatadogConfig `mapstructure:"datadog" json:"datadog"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".lakitu")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults(configDir)
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, when set, overrides individual postgres_* settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	// AI defaults
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 2048)
	viper.SetDefault("language", "auto")
	viper.SetDefault("max_history_messages", DefaultMaxHistoryMessages)
	viper.SetDefault("max_turns", 5)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "lakitu")
	viper.SetDefault("postgres_password", "lakitu_dev_password")
	viper.SetDefault("postgres_db_name", "lakitu")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Knowledge defaults
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("games_dir", "games")
	viper.SetDefault("scraper.parallelism", 2)
	viper.SetDefault("scraper.delay_ms", 1000)
	viper.SetDefault("scraper.timeout_ms", 10000)
	viper.SetDefault("scraper.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	// Capture defaults
	viper.SetDefault("capture.interval_seconds", DefaultCaptureIntervalSeconds)
	viper.SetDefault("capture.command", "")
	viper.SetDefault("capture.key_file", filepath.Join(configDir, "screenshot.key"))
	viper.SetDefault("capture.lock_file", filepath.Join(configDir, "capture.lock"))

	// Datadog defaults
	viper.SetDefault("datadog.enabled", false)
	viper.SetDefault("datadog.agent_host", "localhost:4318")
	viper.SetDefault("datadog.environment", "dev")
	viper.SetDefault("datadog.service_name", "lakitu")
}

// bindEnvVariables binds environment overrides explicitly.
//
// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper; validation
// checks its presence in Validate().
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "LAKITU_MODEL_NAME")
	mustBind("language", "LAKITU_LANGUAGE")
	mustBind("games_dir", "LAKITU_GAMES_DIR")
	mustBind("capture.interval_seconds", "LAKITU_CAPTURE_INTERVAL")
	mustBind("capture.command", "LAKITU_CAPTURE_COMMAND")
	mustBind("datadog.enabled", "LAKITU_TRACING")
	mustBind("datadog.agent_host", "DD_AGENT_HOST")
	mustBind("datadog.environment", "DD_ENV")
	mustBind("datadog.service_name", "DD_SERVICE")
}

// LogValue implements slog.LogValuer, masking sensitive fields.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("model_name", c.ModelName),
		slog.String("embedder_model", c.EmbedderModel),
		slog.String("postgres_host", c.PostgresHost),
		slog.Int("postgres_port", c.PostgresPort),
		slog.String("postgres_db_name", c.PostgresDBName),
		slog.String("games_dir", c.GamesDir),
		slog.Int("capture_interval_seconds", c.Capture.IntervalSeconds),
	)
}

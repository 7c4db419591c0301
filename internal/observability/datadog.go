// Package observability exports Genkit traces to a local Datadog Agent
// over OTLP HTTP. The Agent handles authentication, buffering and
// forwarding, so the application never touches DD_API_KEY.
//
// Enable the Agent's OTLP receiver in datadog.yaml:
//
//	otlp_config:
//	  receiver:
//	    protocols:
//	      http:
//	        endpoint: "localhost:4318"
//	  traces:
//	    enabled: true
//
// Environment overrides: DD_AGENT_HOST, DD_ENV, DD_SERVICE.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultAgentHost is the default Datadog Agent OTLP HTTP endpoint.
const DefaultAgentHost = "localhost:4318"

const shutdownTimeout = 5 * time.Second

// Config for the Datadog exporter.
type Config struct {
	AgentHost   string // Agent OTLP endpoint (default localhost:4318)
	Environment string // deployment environment tag
	ServiceName string // service name shown in Datadog APM
}

// SetupDatadog registers a Datadog Agent exporter with Genkit's
// TracerProvider. Must run before genkit.Init so the provider is ready.
// Returns a shutdown function that flushes pending spans; exporter
// creation failure disables tracing rather than failing startup.
func SetupDatadog(ctx context.Context, cfg Config) func() {
	agentHost := cfg.AgentHost
	if agentHost == "" {
		agentHost = DefaultAgentHost
	}

	// Genkit's TracerProvider picks these up at init. Setenv is safe
	// here: called once during startup before any goroutines.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(), // localhost agent, no TLS
	)
	if err != nil {
		slog.Warn("creating datadog exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	slog.Debug("datadog tracing enabled",
		"agent", agentHost,
		"service", cfg.ServiceName,
		"environment", cfg.Environment)

	shutdown := tracing.TracerProvider().Shutdown
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("shutting down tracer provider", "error", err)
		}
	}
}

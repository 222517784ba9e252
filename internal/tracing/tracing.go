// Package tracing configures OpenTelemetry for goose. Spans go nowhere
// unless a session enables tracing, in which case they are written as JSON
// to logs/<session>.trace.json.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/gooseworks/goose"

// Span attribute keys.
const (
	AttrSession          = attribute.Key("goose.session")
	AttrProvider         = attribute.Key("goose.provider")
	AttrModel            = attribute.Key("goose.model")
	AttrMessageCount     = attribute.Key("goose.messages.count")
	AttrPromptTokens     = attribute.Key("goose.usage.prompt_tokens")
	AttrCompletionTokens = attribute.Key("goose.usage.completion_tokens")
	AttrToolName         = attribute.Key("goose.tool.name")
	AttrToolUseID        = attribute.Key("goose.tool.use_id")
	AttrToolIsError      = attribute.Key("goose.tool.is_error")
	AttrToolRound        = attribute.Key("goose.tool.round")
)

// Tracer returns the goose tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a tracer provider exporting to logs/<session>.trace.json.
// When enabled is false it leaves the global no-op provider in place.
func Setup(logsDir, session string, enabled bool) (ShutdownFunc, error) {
	if !enabled {
		return noopShutdown, nil
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}
	path := filepath.Join(logsDir, session+".trace.json")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)

	return func(ctx context.Context) error {
		err := provider.Shutdown(ctx)
		otel.SetTracerProvider(previous)
		return errors.Join(err, f.Close())
	}, nil
}

// RecordError marks span as failed with err. A nil err sets status Ok.
func RecordError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

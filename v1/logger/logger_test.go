package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(tracing bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewFromZap(zap.New(core), tracing), logs
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(Debug))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(Info))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(Warning))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(Error))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("production"))
}

func TestNewLoggerClient(t *testing.T) {
	log := NewLoggerClient(Config{Level: Warning})
	require.NotNil(t, log.Zap)
	assert.False(t, log.Zap.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Zap.Core().Enabled(zapcore.WarnLevel))
}

func TestFieldsAndError(t *testing.T) {
	log, logs := newObservedLogger(false)

	log.Error("query failed", errors.New("boom"), map[string]interface{}{"table": "messages"})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "messages", ctx["table"])
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	log, logs := newObservedLogger(true)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	log.InfoWithContext(ctx, "inside span", nil)
	log.InfoWithContext(context.Background(), "no span", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0].ContextMap()["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entries[0].ContextMap()["span_id"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}

func TestWithContextTracingDisabled(t *testing.T) {
	log, logs := newObservedLogger(false)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	log.WarnWithContext(ctx, "inside span", nil)

	require.Len(t, logs.All(), 1)
	assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")
}

package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	assert.NotNil(t, FromContext(nil))
}

func TestWithContext_RoundTrip(t *testing.T) {
	log := zap.NewExample()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

func TestTraceFields(t *testing.T) {
	assert.Empty(t, TraceFields(context.Background()))

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(WithRequestID(context.Background(), "req-1"), sc)

	fields := TraceFields(ctx)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"request_id", "trace_id", "span_id"}, keys)
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestFor_PrefersStoredLogger(t *testing.T) {
	baseCore, baseLogs := observer.New(zapcore.InfoLevel)
	storedCore, storedLogs := observer.New(zapcore.InfoLevel)

	ctx := WithRequestID(WithContext(context.Background(), zap.New(storedCore)), "req-9")
	For(ctx, zap.New(baseCore)).Info("hello")

	assert.Equal(t, 0, baseLogs.Len())
	entries := storedLogs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
	}
}

func TestFor_NilBase(t *testing.T) {
	assert.NotNil(t, For(context.Background(), nil))
}

// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		parent context.Context
	}{
		{name: "nil parent", parent: nil},
		{name: "background parent", parent: context.Background()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.parent, "req-1")
			ctx = ContextWithJobID(ctx, "job-2")

			assert.Equal(t, "req-1", RequestIDFromContext(ctx))
			assert.Equal(t, "job-2", JobIDFromContext(ctx))
		})
	}
}

func TestCorrelationIDAbsent(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(nil))
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, JobIDFromContext(nil))
	assert.Empty(t, JobIDFromContext(context.Background()))
}

func TestWithContextAddsIDs(t *testing.T) {
	buf := swapRoot(t)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithJobID(ctx, "job-2")
	WithContext(ctx, process).Info().Msg("correlated")

	entry := lastEntry(t, buf)
	assert.Equal(t, "req-1", entry[FieldRequestID])
	assert.Equal(t, "job-2", entry[FieldJobID])
}

func TestWithContextWithoutIDs(t *testing.T) {
	buf := swapRoot(t)

	WithContext(context.Background(), process).Info().Msg("plain")

	entry := lastEntry(t, buf)
	assert.NotContains(t, entry, FieldRequestID)
	assert.NotContains(t, entry, FieldJobID)
}

func TestFromContextPrefersAttached(t *testing.T) {
	var buf bytes.Buffer
	attached := zerolog.New(&buf)
	ctx := attached.WithContext(context.Background())

	FromContext(ctx).Info().Msg("through attached")

	assert.Contains(t, buf.String(), "through attached")
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())

	l = FromContext(nil)
	require.NotNil(t, l)
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())
}

func TestWithComponentFromContext(t *testing.T) {
	buf := swapRoot(t)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = ContextWithRequestID(ctx, "req-9")

	WithComponentFromContext(ctx, "api").Info().Msg("handled")

	entry := lastEntry(t, buf)
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "req-9", entry[FieldRequestID])
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, spanID.String(), entry["span_id"])
}

func TestWithSpanInvalidSpan(t *testing.T) {
	buf := swapRoot(t)

	withSpan(context.Background(), process).Info().Msg("no span")

	entry := lastEntry(t, buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

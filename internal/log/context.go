// SPDX-License-Identifier: MIT

package log

import (
	"context"

	"github.com/rs/zerolog"
)

// Correlation field names as they appear in log output.
const (
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
)

type ctxKey uint8

const (
	requestIDKey ctxKey = iota
	jobIDKey
)

func stash(ctx context.Context, key ctxKey, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, id)
}

func fetch(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(key).(string)
	return id
}

// ContextWithRequestID attaches an HTTP request ID to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return stash(ctx, requestIDKey, id)
}

// RequestIDFromContext reads the request ID, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	return fetch(ctx, requestIDKey)
}

// ContextWithJobID attaches a generation job ID to ctx.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	return stash(ctx, jobIDKey, id)
}

// JobIDFromContext reads the job ID, or "" when absent.
func JobIDFromContext(ctx context.Context) string {
	return fetch(ctx, jobIDKey)
}

// WithContext copies the correlation IDs held by ctx onto logger.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	rid := RequestIDFromContext(ctx)
	jid := JobIDFromContext(ctx)
	if rid == "" && jid == "" {
		return logger
	}
	lc := logger.With()
	if rid != "" {
		lc = lc.Str(FieldRequestID, rid)
	}
	if jid != "" {
		lc = lc.Str(FieldJobID, jid)
	}
	return lc.Logger()
}

// FromContext returns the logger attached to ctx, or the process logger
// when ctx carries none.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	l := root()
	return &l
}

// WithComponentFromContext is the standard way to obtain a logger inside
// a request or job: the context logger plus the component name, the
// correlation IDs and, when a span is recording, the trace IDs.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	l := WithContext(ctx, *FromContext(ctx))
	l = withSpan(ctx, l)
	return l.With().Str("component", component).Logger()
}

// SPDX-License-Identifier: MIT

package api

import (
	"crypto/subtle"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/greysonlalonde/js-utilities/internal/log"
	"github.com/greysonlalonde/js-utilities/internal/metrics"
	"github.com/greysonlalonde/js-utilities/internal/ratelimit"
)

// HeaderRequestID carries the request correlation ID.
const HeaderRequestID = "X-Request-ID"

// requestID assigns every request a correlation ID, honoring one the
// client already sent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := log.ContextWithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverPanics keeps handler panics from crashing the process. The
// panic is logged with a stack trace and the client gets a 500.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 8192)
				n := runtime.Stack(buf, false)

				logger := log.WithComponentFromContext(r.Context(), "api")
				logger.Error().
					Str("event", "panic.recovered").
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Interface("panic_value", rec).
					Str("stack_trace", string(buf[:n])).
					Msg("panic recovered in HTTP handler")

				writeError(w, http.StatusInternalServerError, "internal",
					"an unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestMetrics records per-request latency labeled by route pattern
// and status code. Route patterns keep label cardinality bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// requestLogs emits one structured log line per request.
func requestLogs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Info().
			Str("event", "http.request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request handled")
	})
}

// auth enforces bearer-token authentication on the API routes. An
// empty configured token disables auth entirely.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		token := s.cfg.Server.APIToken
		s.mu.RUnlock()

		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		logger := log.WithComponentFromContext(r.Context(), "auth")

		reqToken := bearerToken(r)
		if reqToken == "" {
			logger.Warn().
				Str("event", "auth.missing_header").
				Str("path", r.URL.Path).
				Msg("authorization header missing")
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		if subtle.ConstantTimeCompare([]byte(reqToken), []byte(token)) != 1 {
			logger.Warn().
				Str("event", "auth.invalid_token").
				Str("path", r.URL.Path).
				Msg("invalid api token")
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// routeLimit applies the token-bucket limiter for one named route.
func (s *Server) routeLimit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ratelimit.ClientIP(r)
			if !s.limiter.Allow(ip, route) {
				logger := log.WithComponentFromContext(r.Context(), "api")
				logger.Warn().
					Str("event", "ratelimit.rejected").
					Str("route", route).
					Str("client_ip", ip).
					Msg("request rate limited")
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited",
					"too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

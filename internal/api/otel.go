// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

// otelTraces wraps the route tree with OpenTelemetry HTTP
// instrumentation so every API request becomes a span with trace
// context propagated from inbound headers.
func otelTraces(next http.Handler) http.Handler {
	return otelhttp.NewHandler(
		next,
		"js-utilities",
		otelhttp.WithTracerProvider(otel.GetTracerProvider()),
		otelhttp.WithFilter(shouldTrace),
		otelhttp.WithSpanNameFormatter(spanName),
	)
}

// shouldTrace skips probe and scrape endpoints to keep trace volume
// proportional to real work.
func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return false
	}
	return true
}

// spanName formats spans as "METHOD /path" without query values.
func spanName(operation string, r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

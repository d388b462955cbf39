// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the complete route tree with the middleware stack
// applied. Middleware order: recovery outermost, then correlation,
// then observability.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverPanics)
	r.Use(requestID)
	r.Use(otelTraces)
	r.Use(requestMetrics)
	r.Use(requestLogs)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Handle("/files/*", http.StripPrefix("/files/", s.fileServer()))

	rpm := s.cfg.Server.RateLimit

	r.Route("/api", func(api chi.Router) {
		api.Use(s.auth)

		api.Get("/status", s.handleStatus)
		api.Get("/history", s.handleHistory)
		api.Get("/history/{id}", s.handleHistoryRun)

		api.Group(func(mut chi.Router) {
			if rpm > 0 {
				mut.Use(httprate.LimitByIP(rpm, time.Minute))
			}
			mut.With(s.routeLimit("render")).Post("/render", s.handleRender)
			mut.With(s.routeLimit("refresh")).Post("/refresh", s.handleRefresh)
		})
	})

	return r
}

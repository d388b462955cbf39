// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the js-utilities
// generation and QA subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerateRunsTotal counts generation runs by result (ok/error).
	GenerateRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsutil_generate_runs_total",
		Help: "Total number of generation runs, by result.",
	}, []string{"result"})

	// GenerateDuration observes end-to-end generation run latency.
	GenerateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jsutil_generate_duration_seconds",
		Help:    "Duration of generation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	// ComponentsRenderedTotal counts rendered component files by kind.
	ComponentsRenderedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsutil_components_rendered_total",
		Help: "Total number of component files rendered, by kind.",
	}, []string{"kind"})

	// PipelineRunsTotal counts QA pipeline runs by result (ok/error).
	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsutil_pipeline_runs_total",
		Help: "Total number of QA pipeline runs, by result.",
	}, []string{"result"})

	// PipelineStepFailuresTotal counts pipeline step failures by step.
	PipelineStepFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsutil_pipeline_step_failures_total",
		Help: "Total number of failed QA pipeline steps, by step.",
	}, []string{"step"})

	// PipelineStepDuration observes per-step pipeline latency.
	PipelineStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jsutil_pipeline_step_duration_seconds",
		Help:    "Duration of QA pipeline steps in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	// CacheHitsTotal counts render cache hits by backend.
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsutil_cache_hits_total",
		Help: "Total number of render cache hits, by backend.",
	}, []string{"backend"})

	// CacheMissesTotal counts render cache misses by backend.
	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsutil_cache_misses_total",
		Help: "Total number of render cache misses, by backend.",
	}, []string{"backend"})

	// HTTPRequestDuration observes API request latency by route and code.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jsutil_http_request_duration_seconds",
		Help:    "Duration of API requests in seconds, by route and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "code"})

	// RefreshConflictsTotal counts refresh requests rejected because a
	// run was already in flight.
	RefreshConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jsutil_refresh_conflicts_total",
		Help: "Total number of refresh requests rejected while a run was active.",
	})
)

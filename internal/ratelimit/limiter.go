// SPDX-License-Identifier: MIT

// Package ratelimit bounds how fast clients can drive the generation
// endpoints. Three token buckets apply in order: one global, one for
// the named route and one per client IP.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var rejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "jsutil",
		Name:      "ratelimit_exceeded_total",
		Help:      "Total rate limit rejections",
	},
	[]string{"layer", "route"},
)

// Bucket describes one token bucket.
type Bucket struct {
	Rate  rate.Limit // refill rate in requests per second
	Burst int
}

// Config holds the bucket sizes for every layer.
type Config struct {
	Global Bucket
	PerIP  Bucket

	// Routes maps route names to their own bucket. Routes without an
	// entry are only subject to the global and per-IP layers.
	Routes map[string]Bucket

	// IdleTTL is how long an idle client IP keeps its bucket. Zero or
	// less disables the sweep.
	IdleTTL time.Duration
}

// DefaultConfig sizes the buckets for a single daemon instance. The
// refresh route runs a full generate including the toolchain, so it
// gets far fewer tokens than a single-component render.
func DefaultConfig() Config {
	return Config{
		Global: Bucket{Rate: 100, Burst: 200},
		PerIP:  Bucket{Rate: 10, Burst: 20},
		Routes: map[string]Bucket{
			"render":  {Rate: 30, Burst: 60},
			"refresh": {Rate: 2, Burst: 5},
		},
		IdleTTL: 5 * time.Minute,
	}
}

// Limiter applies the configured buckets. The zero value is not usable;
// call New.
type Limiter struct {
	cfg    Config
	global *rate.Limiter

	// routes is filled in New and read-only afterwards.
	routes map[string]*rate.Limiter

	mu        sync.Mutex
	perIP     map[string]*ipBucket
	lastSweep time.Time
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New builds a limiter from cfg.
func New(cfg Config) *Limiter {
	routes := make(map[string]*rate.Limiter, len(cfg.Routes))
	for name, b := range cfg.Routes {
		routes[name] = rate.NewLimiter(b.Rate, b.Burst)
	}
	return &Limiter{
		cfg:       cfg,
		global:    rate.NewLimiter(cfg.Global.Rate, cfg.Global.Burst),
		routes:    routes,
		perIP:     make(map[string]*ipBucket),
		lastSweep: time.Now(),
	}
}

// Allow reports whether a request from clientIP to route fits in all
// three layers. Each rejection is counted by layer.
func (l *Limiter) Allow(clientIP, route string) bool {
	if !l.global.Allow() {
		rejections.WithLabelValues("global", route).Inc()
		return false
	}
	if rl, ok := l.routes[route]; ok && !rl.Allow() {
		rejections.WithLabelValues("route", route).Inc()
		return false
	}
	if !l.ipLimiter(clientIP).Allow() {
		rejections.WithLabelValues("ip", route).Inc()
		return false
	}
	return true
}

// ipLimiter returns the bucket for ip, creating it on first sight, and
// refreshes its last-seen stamp so the sweep keeps hot clients.
func (l *Limiter) ipLimiter(ip string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)

	b, ok := l.perIP[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(l.cfg.PerIP.Rate, l.cfg.PerIP.Burst)}
		l.perIP[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweepLocked drops buckets of IPs idle for at least IdleTTL. Active
// clients keep their bucket, so exhausted buckets do not refill early.
func (l *Limiter) sweepLocked(now time.Time) {
	if l.cfg.IdleTTL <= 0 || now.Sub(l.lastSweep) < l.cfg.IdleTTL {
		return
	}
	for ip, b := range l.perIP {
		if now.Sub(b.lastSeen) >= l.cfg.IdleTTL {
			delete(l.perIP, ip)
		}
	}
	l.lastSweep = now
}

// ClientIP extracts the originating client IP, trusting proxy headers
// in the order X-Forwarded-For, X-Real-IP, then the socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first entry is the original client, the rest are proxies.
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

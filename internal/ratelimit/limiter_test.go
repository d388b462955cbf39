// SPDX-License-Identifier: MIT

package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

// trickle is a refill rate slow enough that no token arrives during a
// test, which makes allowed counts exact.
const trickle = 0.01

func countAllowed(l *Limiter, ip, route string, n int) int {
	allowed := 0
	for i := 0; i < n; i++ {
		if l.Allow(ip, route) {
			allowed++
		}
	}
	return allowed
}

func TestAllowGlobalLayer(t *testing.T) {
	l := New(Config{
		Global: Bucket{Rate: trickle, Burst: 4},
		PerIP:  Bucket{Rate: 1000, Burst: 1000},
	})

	if got := countAllowed(l, "10.0.0.1", "render", 10); got != 4 {
		t.Errorf("allowed = %d, want exactly the global burst of 4", got)
	}
}

func TestAllowRouteLayer(t *testing.T) {
	l := New(Config{
		Global: Bucket{Rate: 1000, Burst: 1000},
		PerIP:  Bucket{Rate: 1000, Burst: 1000},
		Routes: map[string]Bucket{
			"refresh": {Rate: trickle, Burst: 3},
		},
	})

	if got := countAllowed(l, "10.0.0.1", "refresh", 10); got != 3 {
		t.Errorf("allowed = %d, want exactly the refresh burst of 3", got)
	}

	// Other routes are not affected by the refresh bucket.
	if got := countAllowed(l, "10.0.0.1", "render", 10); got != 10 {
		t.Errorf("render allowed = %d, want all 10", got)
	}
}

func TestAllowPerIPLayer(t *testing.T) {
	l := New(Config{
		Global: Bucket{Rate: 1000, Burst: 1000},
		PerIP:  Bucket{Rate: trickle, Burst: 5},
	})

	if got := countAllowed(l, "10.0.0.1", "render", 12); got != 5 {
		t.Errorf("first client allowed = %d, want 5", got)
	}

	// A second client gets its own bucket.
	if got := countAllowed(l, "10.0.0.2", "render", 12); got != 5 {
		t.Errorf("second client allowed = %d, want 5", got)
	}
}

func TestIdleSweep(t *testing.T) {
	l := New(Config{
		Global:  Bucket{Rate: 1000, Burst: 1000},
		PerIP:   Bucket{Rate: trickle, Burst: 2},
		IdleTTL: time.Minute,
	})

	// Exhaust both clients, then backdate one of them together with
	// the sweep clock.
	if got := countAllowed(l, "10.0.0.1", "render", 3); got != 2 {
		t.Fatalf("warm client allowed = %d, want 2", got)
	}
	if got := countAllowed(l, "10.0.0.2", "render", 3); got != 2 {
		t.Fatalf("cold client allowed = %d, want 2", got)
	}

	l.mu.Lock()
	l.lastSweep = time.Now().Add(-2 * time.Minute)
	l.perIP["10.0.0.2"].lastSeen = time.Now().Add(-2 * time.Minute)
	l.mu.Unlock()

	// The next request runs the sweep: the warm client keeps its empty
	// bucket, the cold one starts over.
	if l.Allow("10.0.0.1", "render") {
		t.Error("warm client must keep its exhausted bucket")
	}
	if !l.Allow("10.0.0.2", "render") {
		t.Error("cold client should restart with a fresh bucket")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded single",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.1",
		},
		{
			name:       "forwarded chain keeps the client",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1, 10.0.0.1"},
			remoteAddr: "127.0.0.1:12345",
			want:       "203.0.113.1",
		},
		{
			name:       "forwarded with padding",
			headers:    map[string]string{"X-Forwarded-For": "  203.0.113.5  "},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.5",
		},
		{
			name:       "real-ip header",
			headers:    map[string]string{"X-Real-IP": "203.0.113.2"},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.2",
		},
		{
			name:       "socket address",
			remoteAddr: "192.168.1.100:54321",
			want:       "192.168.1.100",
		},
		{
			name:       "ipv6 socket address",
			remoteAddr: "[::1]:8080",
			want:       "::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remoteAddr

			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func BenchmarkAllow(b *testing.B) {
	l := New(DefaultConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Allow("10.0.0.1", "render")
	}
}

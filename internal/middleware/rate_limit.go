package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"flyme-auth/internal/shared/config"

	"golang.org/x/time/rate"
)

const clientIdleTimeout = 3 * time.Minute

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Each limiter owns its
// buckets, so the login routes draw from a budget separate from the API.
type RateLimiter struct {
	scope      string
	limit      rate.Limit
	burst      int
	enabled    bool
	trustProxy bool

	mu      sync.Mutex
	clients map[string]*rateClient
	done    chan struct{}
	once    sync.Once
}

// NewRateLimiter returns the API-wide limiter.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return newRateLimiter("api", cfg.RequestsPerSecond, cfg.BurstSize, cfg)
}

// NewLoginRateLimiter returns the limiter for /auth/{provider} and its
// callback. Every request there costs a round trip to the identity provider.
func NewLoginRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return newRateLimiter("login", cfg.LoginRequestsPerSecond, cfg.LoginBurstSize, cfg)
}

func newRateLimiter(scope string, rps float64, burst int, cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		scope:      scope,
		limit:      rate.Limit(rps),
		burst:      burst,
		enabled:    cfg.Enabled,
		trustProxy: cfg.TrustProxy,
		clients:    make(map[string]*rateClient),
		done:       make(chan struct{}),
	}

	if rl.enabled {
		go rl.evictIdle()
	}

	return rl
}

// Stop ends the background eviction loop.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &rateClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.evictBefore(now.Add(-clientIdleTimeout))
		}
	}
}

func (rl *RateLimiter) evictBefore(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := getClientIP(r, rl.trustProxy)
		if rl.allow(ip, time.Now()) {
			next.ServeHTTP(w, r)
			return
		}

		slog.Warn("Rate limit exceeded",
			"middleware", "rate_limit",
			"scope", rl.scope,
			"client_ip", ip,
			"method", r.Method,
			"path", r.URL.Path,
			"requests_per_second", float64(rl.limit),
			"burst_size", rl.burst,
		)

		w.Header().Set("Retry-After", "1")
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
	})
}

func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

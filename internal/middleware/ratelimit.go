package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// clientTTL is how long an idle client's bucket is kept.
const clientTTL = 10 * time.Minute

// RateLimiter throttles requests per client IP with a token bucket each.
// It guards the credential endpoints, where every request costs a bcrypt
// hash. The key is r.RemoteAddr, so chi's RealIP must only run in front of
// it when a trusted proxy sets the forwarding headers.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	perMinute int
	lastSweep time.Time
	logger    *slog.Logger
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client on average, with
// bursts of up to burst. A perMinute of zero or less returns nil, and a nil
// *RateLimiter lets everything through.
func NewRateLimiter(perMinute, burst int, logger *slog.Logger) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients:   make(map[string]*client),
		limit:     rate.Limit(float64(perMinute) / 60),
		burst:     burst,
		perMinute: perMinute,
		lastSweep: time.Now(),
		logger:    logger,
	}
}

// Handler rejects over-limit requests with 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !l.allow(key, time.Now()) {
			l.logger.Warn("rate limit exceeded",
				slog.String("client", key),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, map[string]string{
				"error":   "rate_limited",
				"message": "Too many requests, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > clientTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > clientTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// retryAfterSeconds is the time for one token to refill, rounded up.
func (l *RateLimiter) retryAfterSeconds() int {
	return (60 + l.perMinute - 1) / l.perMinute
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Aidana2304/SchoolConnect/pkg/logger"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PollLimiter is a per-caller token bucket for the polling endpoints. Keys
// are user ids when authenticated, remote addresses otherwise. Idle entries
// are dropped after ttl.
type PollLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

// NewPollLimiter allows up to requestsPerMinute sustained requests per caller
// with the given burst capacity.
func NewPollLimiter(requestsPerMinute, burst int) *PollLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &PollLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:   burst,
		ttl:     10 * time.Minute,
	}
}

// Allow reports whether the caller identified by key may proceed.
func (l *PollLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := time.Now()

	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	for k, v := range l.clients {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.clients, k)
		}
	}
	l.mu.Unlock()

	return c.limiter.Allow()
}

// Middleware enforces the limiter on the wrapped handler.
func (l *PollLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if claims := GetUserFromContext(r.Context()); claims != nil {
			key = claims.UserID
		}

		if !l.Allow(key) {
			logger.Log.Warnf("Rate limit exceeded for %s on %s", key, r.URL.Path)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

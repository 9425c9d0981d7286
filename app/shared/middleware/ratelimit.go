package sharedmw

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle entry is eligible for
	// cleanup.
	maxIdleAge = 10 * time.Minute
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter tracks one token bucket per client key and prunes stale
// entries inline. Admin endpoints key on the acting admin, everything else on
// the remote IP.
type ClientRateLimiter struct {
	clients map[string]*clientEntry
	mu      sync.Mutex
	r       rate.Limit
	b       int
}

// NewClientRateLimiter creates a new ClientRateLimiter.
func NewClientRateLimiter(r rate.Limit, b int) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients: make(map[string]*clientEntry),
		r:       r,
		b:       b,
	}
}

// GetLimiter returns the rate.Limiter for the given key, pruning stale
// entries when the map exceeds cleanupThreshold.
func (c *ClientRateLimiter) GetLimiter(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.clients) > cleanupThreshold {
		cutoff := time.Now().Add(-maxIdleAge)
		for k, e := range c.clients {
			if e.lastSeen.Before(cutoff) {
				delete(c.clients, k)
			}
		}
	}

	e, exists := c.clients[key]
	if !exists {
		e = &clientEntry{limiter: rate.NewLimiter(c.r, c.b)}
		c.clients[key] = e
	}
	e.lastSeen = time.Now()

	return e.limiter
}

// RateLimit returns a middleware that limits requests per client. The acting
// admin header wins as the key when present so shared NATs don't starve each
// other.
func RateLimit(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(AdminUserHeader)
			if key == "" {
				ip, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					ip = r.RemoteAddr
				}
				key = ip
			}

			if !limiter.GetLimiter(key).Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/collectwise/debtchat/config"
	"github.com/collectwise/debtchat/errors"
	"github.com/collectwise/debtchat/server/metrics"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than it takes to refill them are dropped, since a fresh bucket behaves the
// same.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	metrics   *metrics.Metrics
}

// NewRateLimiter creates a limiter allowing cfg.RequestsPerMinute per IP
// with bursts of cfg.Burst. A non-positive rate disables limiting. m may be
// nil.
func NewRateLimiter(cfg config.RateLimitConfig, m *metrics.Metrics) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Inf
	idleTTL := time.Minute
	if cfg.RequestsPerMinute > 0 {
		interval := time.Minute / time.Duration(cfg.RequestsPerMinute)
		limit = rate.Every(interval)
		if refill := time.Duration(burst) * interval; refill > idleTTL {
			idleTTL = refill
		}
	}

	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
		metrics:  m,
	}
}

func (l *RateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep drops idle visitors. Callers hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idleTTL {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Handler rejects requests over the limit with 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := l.get(clientIP(r))

		reservation := limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			if l.metrics != nil {
				l.metrics.RateLimitHits.Inc()
			}
			retryAfter := int(math.Ceil(delay.Seconds()))
			errors.WriteError(w, errors.NewRateLimitError(GetRequestID(r.Context()), retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

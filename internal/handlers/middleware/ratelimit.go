package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nkiryanov/ridehail/internal/handlers/authctx"
	"github.com/nkiryanov/ridehail/internal/handlers/render"
)

const (
	DefaultRate    rate.Limit = 10
	DefaultBurst              = 20
	DefaultIdleTTL            = 10 * time.Minute
)

type RateLimiterConfig struct {
	// Requests per second allowed for a principal
	Rate  rate.Limit
	Burst int

	// Limiter of a principal not seen for that long is dropped
	IdleTTL time.Duration

	Now func() time.Time
}

type principalLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter is a token bucket per authenticated principal
type RateLimiter struct {
	rate    rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	limiters  map[uuid.UUID]*principalLimiter
	lastSweep time.Time
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &RateLimiter{
		rate:      cfg.Rate,
		burst:     cfg.Burst,
		idleTTL:   cfg.IdleTTL,
		now:       cfg.Now,
		limiters:  make(map[uuid.UUID]*principalLimiter),
		lastSweep: cfg.Now(),
	}
}

// Middleware has to be placed after AuthMiddleware
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := authctx.FromContext(r.Context())
		if !ok {
			render.Error(w, render.UnauthenticatedErrorType, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if !rl.allow(p.ID) {
			retryAfter := int(math.Ceil(1.0 / float64(rl.rate)))
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			render.Error(w, render.RateLimitedErrorType, "Too many requests, retry later", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Count of principals tracked right now
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) allow(id uuid.UUID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	pl, ok := rl.limiters[id]
	if !ok {
		pl = &principalLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[id] = pl
	}
	pl.lastAccess = now

	return pl.limiter.AllowN(now, 1)
}

// Drop idle limiters, at most once per idleTTL
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	rl.lastSweep = now

	for id, pl := range rl.limiters {
		if now.Sub(pl.lastAccess) > rl.idleTTL {
			delete(rl.limiters, id)
		}
	}
}

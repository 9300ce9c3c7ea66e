// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the rate-limit middleware and its process-local backend.
// The backend is a per-identity token bucket (golang.org/x/time/rate) with
// opportunistic eviction of idle buckets. A Redis fixed-window backend for
// multi-instance deployments lives in ratelimit_redis.go; both satisfy
// Allower and share the same Gin handler.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByPrincipalOrIP keys authenticated requests by role and user id
// ("doctor:7", "patient:12") and falls back to the client IP ("ip:203.0.113.7").
// Install the limiter after Authenticate for the principal branch to apply.
func KeyByPrincipalOrIP() keyFunc {
	return func(c *gin.Context) string {
		if p, ok := PrincipalFrom(c); ok {
			return string(p.Role) + ":" + strconv.FormatUint(uint64(p.ID), 10)
		}
		return "ip:" + c.ClientIP()
	}
}

// Allower decides whether one more request for key fits in its budget.
// Implementations must be safe for concurrent use.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is the in-memory token-bucket Allower.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
}

// NewRateLimiter returns a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByPrincipalOrIP()
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// Allow consumes a token from key's bucket. It never returns an error.
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.bucket(key).Allow(), nil
}

// bucket fetches or creates the limiter for key. Every 5000 lookups, idle
// buckets are swept before the requested one is refreshed so a stale entry
// can be evicted even when it is the one being asked for.
func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler installs the limiter with its own key function.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return RateLimit(rl, rl.keyFn)
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay that must not consume budget.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// RateLimit enforces lim per keyFn identity. Replays skip the check. Backend
// errors are logged and the request is let through. Over-budget requests get
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 1
//	{"request_id": "...", "code": "rate_limited", "message": "rate limit exceeded"}
func RateLimit(lim Allower, keyFn keyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = KeyByPrincipalOrIP()
	}
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key := keyFn(c)
		allowed, err := lim.Allow(c.Request.Context(), key)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Str("rate_key", key).Msg("rate limiter unavailable; allowing request")
			c.Next()
			return
		}
		if allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

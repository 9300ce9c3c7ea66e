package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

func TestKeyByPrincipalOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c.Request = req

	if key := KeyByPrincipalOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip key, got %q", key)
	}
	SetPrincipal(c, domain.Principal{ID: 42, Role: domain.RoleDoctor})
	if key := KeyByPrincipalOrIP()(c); key != "doctor:42" {
		t.Fatalf("expected principal key, got %q", key)
	}
}

func TestRateLimiter_BurstCoercionAndBucketReuse(t *testing.T) {
	rl := NewRateLimiter(2, 0, nil)
	if rl.burst != 1 || rl.keyFn == nil {
		t.Fatalf("defaults not applied: burst=%d keyFn=%v", rl.burst, rl.keyFn != nil)
	}
	if rl.bucket("k1") != rl.bucket("k1") {
		t.Fatalf("expected bucket reuse")
	}
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	rl.ttl = time.Nanosecond

	rl.mu.Lock()
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.lookups = 4999
	rl.mu.Unlock()

	_ = rl.bucket("new")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["old"]; ok {
		t.Fatalf("idle bucket should have been evicted")
	}
	if _, ok := rl.visitors["new"]; !ok {
		t.Fatalf("requested bucket should exist")
	}
	if rl.lookups != 0 {
		t.Fatalf("lookup counter should reset, got %d", rl.lookups)
	}
}

func TestRateLimiter_Handler_429AndPerPrincipalBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 1, nil)

	who := domain.Principal{ID: 1, Role: domain.RolePatient}
	r := gin.New()
	r.Use(RequestID(), func(c *gin.Context) { SetPrincipal(c, who); c.Next() }, rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		return w
	}

	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	w := do()
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second request: %d retry-after=%q", w.Code, w.Header().Get("Retry-After"))
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "rate_limited" || body["request_id"] == "" {
		t.Fatalf("unexpected 429 body: %v", body)
	}

	who = domain.Principal{ID: 2, Role: domain.RolePatient}
	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("other principal must have its own bucket, got %d", w.Code)
	}
}

func TestRateLimit_ReplayBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 1, func(*gin.Context) string { return "same" })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") == "1" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}, rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Replay", "1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d should bypass limiter, got %d", i, w.Code)
		}
	}
}

type errAllower struct{}

func (errAllower) Allow(context.Context, string) (bool, error) { return false, errors.New("down") }

func TestRateLimit_BackendErrorFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_ = captureLogger(t)
	r := gin.New()
	r.Use(RateLimit(errAllower{}, nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200, got %d", w.Code)
	}
}

// fakeCounter mimics INCR/EXPIRE on an in-process map.
type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "incr", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, d time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key, d)
	f.expires[key] = d
	cmd.SetVal(true)
	return cmd
}

func TestRedisRateLimiter_FixedWindow(t *testing.T) {
	fc := newFakeCounter()
	l := newRedisRateLimiter(fc, 2, time.Minute)
	now := time.Date(2030, 1, 1, 10, 0, 5, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "patient:1")
		if err != nil || ok != want {
			t.Fatalf("call %d: ok=%v err=%v, want %v", i, ok, err, want)
		}
	}
	if ok, _ := l.Allow(ctx, "patient:2"); !ok {
		t.Fatalf("keys must not share a window")
	}
	if len(fc.expires) != 2 {
		t.Fatalf("expiry must be set once per window key, got %v", fc.expires)
	}
	for _, d := range fc.expires {
		if d != time.Minute+time.Second {
			t.Fatalf("unexpected ttl %v", d)
		}
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "patient:1"); !ok {
		t.Fatalf("next window must reset the budget")
	}
}

func TestRedisRateLimiter_DefaultsAndErrors(t *testing.T) {
	fc := newFakeCounter()
	l := newRedisRateLimiter(fc, 0, 0)
	if l.Limit != 1 || l.Window != time.Second {
		t.Fatalf("defaults not applied: %+v", l)
	}
	fc.err = errors.New("conn refused")
	if _, err := l.Allow(context.Background(), "k"); err == nil {
		t.Fatalf("expected Redis error to surface")
	}
}

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filecodebox/pkg/configs"
	"github.com/yeisme/filecodebox/pkg/internal/storage"
	"github.com/yeisme/filecodebox/pkg/internal/storage/kv"
	"github.com/yeisme/filecodebox/pkg/middleware"
)

func newRateLimitRouter(t *testing.T, store kv.KVStore, cfg configs.RateLimitConfig) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mgr := storage.NewManager(&kv.Client{KVStore: store}, nil, nil)

	r := gin.New()
	r.POST("/share",
		middleware.RateLimitMiddleware(mgr, middleware.RateLimitOpShare, cfg),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) },
	)

	return r
}

func newMemoryStore(t *testing.T) kv.KVStore {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func doShare(r *gin.Engine, caller string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/share", nil)

	if caller != "" {
		req.Header.Set("X-Forwarded-For", caller)
	}

	r.ServeHTTP(w, req)

	return w.Code
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	cfg := configs.RateLimitConfig{
		Enabled:      true,
		Share:        configs.RateLimitOp{Limit: 3, WindowSeconds: 60},
		GraceSeconds: 10,
	}

	r := newRateLimitRouter(t, newMemoryStore(t), cfg)

	for i := range 3 {
		if code := doShare(r, "203.0.113.7"); code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i+1, code)
		}
	}

	if code := doShare(r, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", code)
	}
}

func TestRateLimitPerCaller(t *testing.T) {
	cfg := configs.RateLimitConfig{
		Enabled:      true,
		Share:        configs.RateLimitOp{Limit: 1, WindowSeconds: 60},
		GraceSeconds: 10,
	}

	r := newRateLimitRouter(t, newMemoryStore(t), cfg)

	if code := doShare(r, "203.0.113.1"); code != http.StatusOK {
		t.Fatalf("first caller should pass, got %d", code)
	}

	if code := doShare(r, "203.0.113.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first caller should be limited, got %d", code)
	}

	// 不同调用方不共享计数
	if code := doShare(r, "203.0.113.2"); code != http.StatusOK {
		t.Fatalf("second caller should pass, got %d", code)
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping window reset test in short mode")
	}

	cfg := configs.RateLimitConfig{
		Enabled:      true,
		Share:        configs.RateLimitOp{Limit: 1, WindowSeconds: 1},
		GraceSeconds: 1,
	}

	r := newRateLimitRouter(t, newMemoryStore(t), cfg)

	if code := doShare(r, "203.0.113.9"); code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", code)
	}

	// 跨过窗口边界后计数归零
	time.Sleep(1100 * time.Millisecond)

	if code := doShare(r, "203.0.113.9"); code != http.StatusOK {
		t.Fatalf("request after window should pass, got %d", code)
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	cfg := configs.RateLimitConfig{
		Enabled: false,
		Share:   configs.RateLimitOp{Limit: 1, WindowSeconds: 60},
	}

	r := newRateLimitRouter(t, newMemoryStore(t), cfg)

	for range 5 {
		if code := doShare(r, "203.0.113.3"); code != http.StatusOK {
			t.Fatalf("disabled limiter must not reject, got %d", code)
		}
	}
}

// brokenKV 所有操作都失败，用于验证限流失败时放行.
type brokenKV struct{}

func (brokenKV) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("kv unavailable")
}

func (brokenKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("kv unavailable")
}

func (brokenKV) Delete(ctx context.Context, key string) error { return errors.New("kv unavailable") }

func (brokenKV) Exists(ctx context.Context, key string) (bool, error) {
	return false, errors.New("kv unavailable")
}

func (brokenKV) List(ctx context.Context, prefix, cursor string, limit int) ([]string, string, error) {
	return nil, "", errors.New("kv unavailable")
}

func (brokenKV) Close() error { return nil }

func TestRateLimitFailOpen(t *testing.T) {
	cfg := configs.RateLimitConfig{
		Enabled:      true,
		Share:        configs.RateLimitOp{Limit: 1, WindowSeconds: 60},
		GraceSeconds: 10,
	}

	r := newRateLimitRouter(t, brokenKV{}, cfg)

	for range 5 {
		if code := doShare(r, "203.0.113.4"); code != http.StatusOK {
			t.Fatalf("limiter must fail open on kv errors, got %d", code)
		}
	}
}

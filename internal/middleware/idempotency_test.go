package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// fakeIdempotencyStore is an in-memory IdempotencyStore.
type fakeIdempotencyStore struct {
	mu   sync.Mutex
	vals map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{vals: make(map[string]string)}
}

func valueAsString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeIdempotencyStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vals[key] = valueAsString(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vals[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.vals[key] = valueAsString(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := f.vals[key]; ok {
			delete(f.vals, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func postRide(router *gin.Engine, idempotencyKey string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/corridas", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeIdempotencyStore()

	var calls int32
	router := gin.New()
	router.Use(IdempotencyMiddleware(store))
	router.POST("/corridas", func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"business_id": "ride-1"})
	})

	first := postRide(router, "abc")
	second := postRide(router, "abc")

	if calls != 1 {
		t.Errorf("expected the handler to run once, ran %d times", calls)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Errorf("expected 201 on both requests, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("expected the replayed body to match: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotency_ConcurrentDuplicateConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeIdempotencyStore()
	// Another request with this key has reserved it and is still running.
	store.vals["idempotency:abc"] = inProgressMarker

	var calls int32
	router := gin.New()
	router.Use(IdempotencyMiddleware(store))
	router.POST("/corridas", func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"business_id": "ride-1"})
	})

	w := postRide(router, "abc")

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while the key is held, got %d", w.Code)
	}
	if calls != 0 {
		t.Errorf("expected the handler not to run, ran %d times", calls)
	}
}

func TestIdempotency_ServerErrorReleasesReservation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeIdempotencyStore()

	var calls int32
	router := gin.New()
	router.Use(IdempotencyMiddleware(store))
	router.POST("/corridas", func(c *gin.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "record store unreachable"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"business_id": "ride-1"})
	})

	first := postRide(router, "abc")
	second := postRide(router, "abc")

	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on the first request, got %d", first.Code)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected the retry to execute after a server error, got %d", second.Code)
	}
	if calls != 2 {
		t.Errorf("expected the handler to run twice, ran %d times", calls)
	}
}

func TestIdempotency_MissingKeyPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeIdempotencyStore()

	var calls int32
	router := gin.New()
	router.Use(IdempotencyMiddleware(store))
	router.POST("/corridas", func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"business_id": "ride-1"})
	})

	postRide(router, "")
	postRide(router, "")

	if calls != 2 {
		t.Errorf("expected both requests to execute without a key, ran %d times", calls)
	}
}

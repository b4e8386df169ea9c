package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour

	// inProgressMarker reserves a key while the first request carrying it
	// is still executing.
	inProgressMarker = "in-progress"
)

// IdempotencyStore is the slice of the Redis client the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
}

// responseWriter wraps gin.ResponseWriter to capture the response body.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays cached responses for mutating requests
// that carry an Idempotency-Key header, so a client retrying a timed-out
// POST /corridas does not register the ride twice.
//
// The key is reserved with SETNX before the handler runs: two concurrent
// requests with the same key cannot both execute, the loser gets 409.
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:" + key

		reserved, err := store.SetNX(ctx, cacheKey, inProgressMarker, idempotencyTTL).Result()
		if err != nil {
			// Redis unavailable: proceed without idempotency rather than
			// failing the request.
			c.Next()
			return
		}

		if !reserved {
			data, err := store.Get(ctx, cacheKey).Bytes()
			if err != nil {
				// The holder released the key between the two calls.
				c.Next()
				return
			}
			if string(data) == inProgressMarker {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": "a request with this idempotency key is still in progress",
				})
				return
			}
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err != nil {
				c.Next()
				return
			}
			c.Data(cached.StatusCode, "application/json", cached.Body)
			c.Abort()
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors release the reservation so the client retry
		// actually retries.
		if c.Writer.Status() >= 200 && c.Writer.Status() < 500 {
			response := cachedResponse{
				StatusCode: c.Writer.Status(),
				Body:       w.body.Bytes(),
			}
			if data, err := json.Marshal(response); err == nil {
				_ = store.Set(ctx, cacheKey, data, idempotencyTTL).Err()
			}
		} else {
			_ = store.Del(ctx, cacheKey).Err()
		}
	}
}

package api

import (
	"bytes"
	"context"
	"net/http"
	"time"

	apperrors "casting-studio/backend/pkg/errors"
	"casting-studio/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// IdempotencyStore is the key-value surface the middleware needs.
// *redis.Client satisfies it.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, key string) error
}

type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency dedupes generation requests that carry an Idempotency-Key
// header. The first request claims the key and stores its success response;
// replays get the stored body back without touching the provider. A replay
// that arrives while the first request is still in flight gets a 409.
func Idempotency(client IdempotencyStore, ttl time.Duration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" || client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		responseKey := "idempotency:response:" + key
		claimKey := "idempotency:claim:" + key

		if stored, err := client.Get(ctx, responseKey); err == nil && stored != "" {
			c.Header("X-Idempotent-Replay", "true")
			c.Data(http.StatusOK, "application/json", []byte(stored))
			c.Abort()
			return
		}

		claimed, err := client.SetNX(ctx, claimKey, "1", ttl)
		if err != nil {
			// Redis being down should not block generation
			log.Warn("idempotency claim failed, proceeding without dedup", "error", err)
			c.Next()
			return
		}
		if !claimed {
			c.Error(apperrors.NewError(http.StatusConflict, "REQUEST_IN_FLIGHT",
				"A request with this Idempotency-Key is already being processed"))
			c.Abort()
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		if c.Writer.Status() == http.StatusOK && recorder.body.Len() > 0 {
			if err := client.Set(ctx, responseKey, recorder.body.String(), ttl); err != nil {
				log.Warn("failed to store idempotent response", "error", err)
			}
		} else {
			// Failed requests release the claim so the client can retry
			if err := client.Del(ctx, claimKey); err != nil {
				log.Warn("failed to release idempotency claim", "error", err)
			}
		}
	}
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apperrors "casting-studio/backend/pkg/errors"
	"casting-studio/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = value.(string)
	return true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value.(string)
	return nil
}

func (s *memoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func idempotencyRouter(store IdempotencyStore, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	r.POST("/generate", Idempotency(store, time.Minute, logger.New(logger.DefaultConfig())), handler)
	return r
}

func keyedRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"success": true, "imageUrl": "https://img.example/a.png"})
	})

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, keyedRequest("key-1"))
	require.Equal(t, http.StatusOK, w1.Code)
	require.Equal(t, 1, calls)
	assert.Empty(t, w1.Header().Get("X-Idempotent-Replay"))

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, keyedRequest("key-1"))
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, 1, calls, "replay must not re-run the handler")
	assert.Equal(t, "true", w2.Header().Get("X-Idempotent-Replay"))
	assert.Equal(t, w1.Body.String(), w2.Body.String())
}

func TestIdempotencyConflictWhileInFlight(t *testing.T) {
	store := newMemoryStore()
	claimed, err := store.SetNX(context.Background(), "idempotency:claim:key-2", "1", time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, keyedRequest("key-2"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, calls)
	assert.Contains(t, w.Body.String(), "already being processed")
}

func TestIdempotencyReleasesClaimOnFailure(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "upstream down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, keyedRequest("key-3"))
	require.Equal(t, http.StatusBadGateway, w1.Code)

	// The failed attempt must not leave a claim or a stored response behind
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, keyedRequest("key-3"))
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, 2, calls)
	assert.Empty(t, w2.Header().Get("X-Idempotent-Replay"))
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, keyedRequest(""))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotencyNilStorePassesThrough(t *testing.T) {
	calls := 0
	r := idempotencyRouter(nil, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, keyedRequest("key-4"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

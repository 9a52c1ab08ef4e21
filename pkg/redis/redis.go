package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options holds connection settings for the Redis client
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps go-redis for the handful of operations this service needs
// (idempotency keys and health probes).
type Client struct {
	client *redis.Client
}

// NewClient creates a Redis client from explicit options
func NewClient(opts Options) *Client {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Client{client: client}
}

// Set stores a value with an expiration
func (r *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// SetNX stores a value only if the key does not already exist.
// Returns true when this call claimed the key.
func (r *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiration).Result()
}

// Get retrieves a value; returns ("", nil) when the key is absent
func (r *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Del removes a key
func (r *Client) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Ping verifies connectivity
func (r *Client) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

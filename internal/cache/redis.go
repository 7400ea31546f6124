// Package cache provides a tiny Redis client wrapper for classification result caching
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

const keyPrefix = "classify:"

// Cache wraps a Redis client for top-k result storage
type Cache struct {
	client *redis.Client
}

// New creates a new Cache instance connected to the specified Redis address
// If addr is empty, defaults to localhost:6379
func New(addr string) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client}, nil
}

// Key derives a cache key from the backend, k and the decoded pixels, so the
// same image reached through different paths shares one entry.
func Key(backend string, img preprocess.Image, k int) string {
	h := sha256.New()
	var dims [16]byte
	binary.LittleEndian.PutUint32(dims[0:], uint32(img.Width))
	binary.LittleEndian.PutUint32(dims[4:], uint32(img.Height))
	binary.LittleEndian.PutUint32(dims[8:], uint32(img.Channels))
	binary.LittleEndian.PutUint32(dims[12:], uint32(k))
	h.Write([]byte(backend))
	h.Write(dims[:])
	h.Write(img.Pix)
	return keyPrefix + backend + ":" + hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	Indices []int     `json:"i"`
	Scores  []float32 `json:"s"`
}

// SetResult stores a top-k result with the specified TTL
func (c *Cache) SetResult(ctx context.Context, key string, res topk.Result, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("cache client is nil")
	}

	data, err := json.Marshal(entry{Indices: res.Indices, Scores: res.Scores})
	if err != nil {
		return fmt.Errorf("failed to encode result for %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set result %s: %w", key, err)
	}
	return nil
}

// GetResult retrieves a cached result. ok is false when the key does not exist.
func (c *Cache) GetResult(ctx context.Context, key string) (res topk.Result, ok bool, err error) {
	if c == nil || c.client == nil {
		return topk.Result{}, false, fmt.Errorf("cache client is nil")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return topk.Result{}, false, nil // Key does not exist
	}
	if err != nil {
		return topk.Result{}, false, fmt.Errorf("failed to get result %s: %w", key, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return topk.Result{}, false, fmt.Errorf("failed to decode result %s: %w", key, err)
	}
	if len(e.Indices) != len(e.Scores) {
		return topk.Result{}, false, fmt.Errorf("corrupt result %s: %d indices, %d scores", key, len(e.Indices), len(e.Scores))
	}
	return topk.Result{Indices: e.Indices, Scores: e.Scores}, true, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

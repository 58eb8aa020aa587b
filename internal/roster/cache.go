package roster

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the roster for a bounded time.
type Cache interface {
	Get(ctx context.Context) ([]Student, bool, error)
	Set(ctx context.Context, students []Student, ttl time.Duration) error
}

// NoCache never holds anything.
type NoCache struct{}

// Get always misses.
func (NoCache) Get(context.Context) ([]Student, bool, error) { return nil, false, nil }

// Set discards the roster.
func (NoCache) Set(context.Context, []Student, time.Duration) error { return nil }

// MemoryCache holds the roster in process memory.
type MemoryCache struct {
	mu       sync.Mutex
	students []Student
	expires  time.Time
	now      func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

// Get returns the cached roster if it has not expired.
func (c *MemoryCache) Get(context.Context) ([]Student, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.students == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	out := make([]Student, len(c.students))
	copy(out, c.students)
	return out, true, nil
}

// Set replaces the cached roster.
func (c *MemoryCache) Set(_ context.Context, students []Student, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.students = make([]Student, len(students))
	copy(c.students, students)
	c.expires = c.now().Add(ttl)
	return nil
}

// RedisCache shares the roster between server instances.
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache stores the roster as JSON under key.
func NewRedisCache(client *redis.Client, key string) *RedisCache {
	if key == "" {
		key = "garden:roster"
	}
	return &RedisCache{client: client, key: key}
}

// Get reads the roster; a missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context) ([]Student, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var students []Student
	if err := json.Unmarshal(raw, &students); err != nil {
		return nil, false, err
	}
	return students, true, nil
}

// Set writes the roster with an expiry.
func (c *RedisCache) Set(ctx context.Context, students []Student, ttl time.Duration) error {
	raw, err := json.Marshal(students)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, ttl).Err()
}

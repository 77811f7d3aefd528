package slackbot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers delivered event ids so Slack retries are handled once.
type Deduper interface {
	// FirstDelivery records id and reports whether it had not been seen
	// within the retention window.
	FirstDelivery(ctx context.Context, id string) (bool, error)
}

// RedisDeduper shares delivery state through Redis, so several replicas
// connected to the same app handle each event once.
type RedisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDeduper creates a RedisDeduper.
func NewRedisDeduper(client *redis.Client, prefix string, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: prefix, ttl: ttl}
}

// FirstDelivery implements Deduper with SET NX.
func (d *RedisDeduper) FirstDelivery(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+id, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return true, fmt.Errorf("dedup set error: %w", err)
	}
	return ok, nil
}

// Ping checks the Redis connection.
func (d *RedisDeduper) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// MemoryDeduper keeps delivery state in process.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryDeduper creates a MemoryDeduper retaining ids for ttl.
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// FirstDelivery implements Deduper. Expired ids are swept on each call.
func (d *MemoryDeduper) FirstDelivery(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, expires := range d.seen {
		if !now.Before(expires) {
			delete(d.seen, k)
		}
	}
	if _, ok := d.seen[id]; ok {
		return false, nil
	}
	d.seen[id] = now.Add(d.ttl)
	return true, nil
}

// Len returns the number of ids currently retained.
func (d *MemoryDeduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

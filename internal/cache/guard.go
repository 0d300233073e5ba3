package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultGuardTTL bounds how long a crashed submission can hold its key.
const DefaultGuardTTL = 30 * time.Second

func guardKey(key string) string {
	return "inflight:" + key
}

// RedisGuard marks a submission in flight with SET NX so that replicas of the
// gateway share the same view.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, guardKey(key), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, guardKey(key)).Err()
}

type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &MemoryGuard{
		held: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, expires := range g.held {
		if !now.Before(expires) {
			delete(g.held, k)
		}
	}
	if _, ok := g.held[key]; ok {
		return false, nil
	}
	g.held[key] = now.Add(g.ttl)
	return true, nil
}

func (g *MemoryGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	return nil
}

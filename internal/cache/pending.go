package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/aircargo/internal/models"
)

// PendingStore keeps at most one unsubmitted itinerary per user.
type PendingStore interface {
	Save(ctx context.Context, userID string, p models.PendingBooking) error
	Load(ctx context.Context, userID string) (*models.PendingBooking, bool, error)
	Delete(ctx context.Context, userID string) error
}

func pendingKey(userID string) string {
	return "pending:" + userID
}

type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPendingStore(client *redis.Client, ttl time.Duration) *RedisPendingStore {
	return &RedisPendingStore{client: client, ttl: ttl}
}

func (s *RedisPendingStore) Save(ctx context.Context, userID string, p models.PendingBooking) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, pendingKey(userID), data, s.ttl).Err()
}

func (s *RedisPendingStore) Load(ctx context.Context, userID string) (*models.PendingBooking, bool, error) {
	data, err := s.client.Get(ctx, pendingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var p models.PendingBooking
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (s *RedisPendingStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, pendingKey(userID)).Err()
}

type memoryEntry struct {
	pending models.PendingBooking
	expires time.Time
}

// MemoryPendingStore is used when Redis is disabled. Expired entries are
// dropped on Load and swept on every Save.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryPendingStore(ttl time.Duration) *MemoryPendingStore {
	return &MemoryPendingStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryPendingStore) Save(ctx context.Context, userID string, p models.PendingBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.ttl > 0 {
		for k, e := range s.entries {
			if !now.Before(e.expires) {
				delete(s.entries, k)
			}
		}
	}
	s.entries[userID] = memoryEntry{pending: p, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryPendingStore) Load(ctx context.Context, userID string) (*models.PendingBooking, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return nil, false, nil
	}
	if s.ttl > 0 && !s.now().Before(e.expires) {
		delete(s.entries, userID)
		return nil, false, nil
	}
	p := e.pending
	return &p, true, nil
}

func (s *MemoryPendingStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

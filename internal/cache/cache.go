package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/aircargo/internal/models"
)

// Cache holds normalized routes per origin, destination and date. Filters and
// sorting are applied after a lookup, so they are not part of the key.
type Cache interface {
	Get(ctx context.Context, req models.SearchRequest) (*models.RouteSet, bool)
	Set(ctx context.Context, req models.SearchRequest, set models.RouteSet) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRedisClient connects and pings. The client is shared by the route cache,
// the pending store and the in-flight guard.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, req models.SearchRequest) (*models.RouteSet, bool) {
	data, err := c.client.Get(ctx, generateKey(req)).Bytes()
	if err != nil {
		return nil, false
	}

	var set models.RouteSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, false
	}

	return &set, true
}

func (c *RedisCache) Set(ctx context.Context, req models.SearchRequest, set models.RouteSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, generateKey(req), data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, req models.SearchRequest) (*models.RouteSet, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, req models.SearchRequest, set models.RouteSet) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

func generateKey(req models.SearchRequest) string {
	keyData := struct {
		Origin      string
		Destination string
		Date        string
	}{
		Origin:      strings.ToUpper(strings.TrimSpace(req.Origin)),
		Destination: strings.ToUpper(strings.TrimSpace(req.Destination)),
		Date:        req.Date,
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "routes:" + hex.EncodeToString(hash[:])
}

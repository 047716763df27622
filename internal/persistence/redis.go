package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

// DefaultRedisKey matches the storage key the browser build used.
const DefaultRedisKey = "AceTrack.v1"

// RedisBackend keeps the exported document JSON under a single key.
type RedisBackend struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{client: client, key: key, timeout: 3 * time.Second}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Load(ctx context.Context) (*models.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", b.key, err)
	}

	doc, err := Import(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", b.key, err)
	}
	return doc, nil
}

func (b *RedisBackend) Save(ctx context.Context, doc *models.Document) error {
	data, err := Export(doc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", b.key, err)
	}
	return nil
}

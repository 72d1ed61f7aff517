package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

const keyPrefix = "stocklive:record:"

// Cache keeps a best-effort JSON snapshot of each record in Redis. It is a
// read accelerator only; the store stays authoritative and cache failures are
// reported to the caller to log and ignore.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a snapshot cache over an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Put stores the record snapshot under its canonical key.
func (c *Cache) Put(ctx context.Context, record *models.InventoryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record snapshot: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+record.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache record snapshot: %w", err)
	}
	return nil
}

// Get returns the cached snapshot, or models.ErrRecordNotFound on a miss.
func (c *Cache) Get(ctx context.Context, id string) (*models.InventoryRecord, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read record snapshot: %w", err)
	}

	var rec models.InventoryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record snapshot: %w", err)
	}
	return &rec, nil
}

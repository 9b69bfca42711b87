package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// HintCache keeps the boolean assignment of a previous solve in Redis so a
// re-solve of unchanged school data can seed its warm start from it instead
// of burning budget on a fresh feasibility pass. The key is derived from a
// content hash of the input, so any edit to the data invalidates the hints.
type HintCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHintCache wraps a Redis client. ttl bounds hint staleness.
func NewHintCache(client *redis.Client, ttl time.Duration) *HintCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &HintCache{client: client, ttl: ttl}
}

// Key derives the cache key for a school data graph plus its pins.
func (c *HintCache) Key(data *domain.SchoolData, pins []domain.PinnedLesson) (string, error) {
	payload := struct {
		Data *domain.SchoolData    `json:"data"`
		Pins []domain.PinnedLesson `json:"pins"`
	}{Data: data, Pins: pins}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hash school data: %w", err)
	}
	sum := sha256.Sum256(raw)
	return "stundenplan:hints:" + hex.EncodeToString(sum[:]), nil
}

// Put stores the solved assignment under the input's content hash.
func (c *HintCache) Put(ctx context.Context, key string, values []bool) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode hints: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("store hints: %w", err)
	}
	return nil
}

// Get loads a cached assignment, or (nil, nil) on a cache miss.
func (c *HintCache) Get(ctx context.Context, key string) ([]bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load hints: %w", err)
	}
	var values []bool
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode hints: %w", err)
	}
	return values, nil
}

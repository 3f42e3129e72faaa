// Package redis caches Open Targets lookups and embeddings as JSON values
// with a fixed TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/metrics"
	"github.com/bioinsight/backend/pkg/logger"
)

const keyPrefix = "bioinsight:"

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(ctx context.Context, host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	_, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("ttl", ttl),
	)

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores value as JSON under key for the client's TTL.
func (c *Client) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	logger.Debug("Cache entry stored", zap.String("key", key), zap.Duration("ttl", c.ttl))
	return nil
}

// Get decodes the value under key into dest. A missing key reports false
// without error.
func (c *Client) Get(ctx context.Context, key string, dest any) (bool, error) {
	ns := namespace(key)

	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues(ns).Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	err = json.Unmarshal(data, dest)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	metrics.CacheHits.WithLabelValues(ns).Inc()
	logger.Debug("Cache hit", zap.String("key", key))
	return true, nil
}

func (c *Client) SetEmbedding(ctx context.Context, textHash string, embedding []float32) error {
	return c.Set(ctx, "embedding:"+textHash, embedding)
}

func (c *Client) GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error) {
	var embedding []float32
	ok, err := c.Get(ctx, "embedding:"+textHash, &embedding)
	if err != nil || !ok {
		return nil, false, err
	}
	return embedding, true, nil
}

// Invalidate deletes every key in the given namespace, for example
// "ot:evidence" after a corpus refresh.
func (c *Client) Invalidate(ctx context.Context, ns string) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+ns+":*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
			continue
		}
		deleted++
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Cache namespace invalidated", zap.String("namespace", ns), zap.Int("deleted", deleted))
	return nil
}

// namespace is the key up to its last colon, used as the metrics label.
func namespace(key string) string {
	if i := strings.LastIndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "default"
}

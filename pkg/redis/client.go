package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/content-api/config"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

// ErrMiss is returned by Get when the key does not exist
var ErrMiss = errors.New("redis: key not found")

type Client struct {
	rdb *redis.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	})

	client := &Client{rdb: rdb}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		_ = rdb.Close()
		logger.GetLogger().Error("Failed to connect to Redis",
			zap.String("address", cfg.RedisAddress()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.GetLogger().Info("Successfully connected to Redis",
		zap.String("address", cfg.RedisAddress()),
		zap.Int("database", cfg.Redis.Database),
	)

	return client, nil
}

// NewFromClient wraps an existing go-redis client
func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	return data, nil
}

func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}
	return n > 0, nil
}

// DeleteByPrefix removes every key starting with prefix. It walks the
// keyspace with SCAN so a large cache does not block the server.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Unlink(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete cache by prefix: %w", err)
			}
			deleted += int(n)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	logger.GetLogger().Debug("Cache deleted by prefix",
		zap.String("prefix", prefix),
		zap.Int("deleted_count", deleted),
	)
	return deleted, nil
}

// PoolStats reports connection pool usage
func (c *Client) PoolStats() map[string]any {
	s := c.rdb.PoolStats()
	return map[string]any{
		"hits":        s.Hits,
		"misses":      s.Misses,
		"timeouts":    s.Timeouts,
		"total_conns": s.TotalConns,
		"idle_conns":  s.IdleConns,
		"stale_conns": s.StaleConns,
	}
}

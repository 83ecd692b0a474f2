// Package redisstore wraps Redis client operations used by the cache.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
)

type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithMinIdleConns(n int) Option {
	return func(o *redis.Options) { o.MinIdleConns = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.ReadTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.WriteTimeout = d }
}

type Client struct {
	rdb *redis.Client
}

// ScoredMember is one sorted-set entry.
type ScoredMember struct {
	Score  float64
	Member string
}

func New(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     32,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)

	c := &Client{rdb: rdb}
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	observability.ObserveCacheOp("redis_ping", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Get returns the value under key; ok is false when the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (val []byte, ok bool, err error) {
	start := time.Now()
	val, err = c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCacheOp("redis_get", nil, time.Since(start).Seconds())
		return nil, false, nil
	}
	observability.ObserveCacheOp("redis_get", err, time.Since(start).Seconds())
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %q: %w", key, err)
	}
	return val, true, nil
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Incr(ctx, key).Result()
	observability.ObserveCacheOp("redis_incr", err, time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("redis INCR %q: %w", key, err)
	}
	return n, nil
}

// SetAndZAdd writes a plain key and a sorted-set member in one pipeline.
func (c *Client) SetAndZAdd(ctx context.Context, key string, val []byte, zkey string, m ScoredMember) error {
	start := time.Now()
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, val, 0)
		p.ZAdd(ctx, zkey, redis.Z{Score: m.Score, Member: m.Member})
		return nil
	})
	observability.ObserveCacheOp("redis_set_zadd", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis SET %q + ZADD %q: %w", key, zkey, err)
	}
	return nil
}

// ZRangeAll returns every member of zkey ordered by score, ties by member.
func (c *Client) ZRangeAll(ctx context.Context, zkey string) ([]ScoredMember, error) {
	start := time.Now()
	zs, err := c.rdb.ZRangeWithScores(ctx, zkey, 0, -1).Result()
	observability.ObserveCacheOp("redis_zrange", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("redis ZRANGE %q: %w", zkey, err)
	}
	out := make([]ScoredMember, 0, len(zs))
	for _, z := range zs {
		m, ok := z.Member.(string)
		if !ok {
			m = fmt.Sprint(z.Member)
		}
		out = append(out, ScoredMember{Score: z.Score, Member: m})
	}
	return out, nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

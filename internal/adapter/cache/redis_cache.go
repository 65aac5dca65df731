package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/port"
	"github.com/redis/go-redis/v9"
)

// RedisCache publishes the latest quote of every instrument for readers
// outside this process.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ port.QuoteStore = (*RedisCache)(nil)

func NewRedisCache(addr string, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{
		client: rdb,
		ttl:    ttl,
	}
}

func key(instrument domain.Instrument) string { return "quote:" + string(instrument) }

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) SetQuote(ctx context.Context, q domain.Quote) error {
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(q.Instrument), b, c.ttl).Err()
}

func (c *RedisCache) GetQuote(ctx context.Context, instrument domain.Instrument) (*domain.Quote, error) {
	b, err := c.client.Get(ctx, key(instrument)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q domain.Quote
	if err := json.Unmarshal(b, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, instrument domain.Instrument) error {
	return c.client.Del(ctx, key(instrument)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

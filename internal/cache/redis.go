package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps one hash per tenant, so invalidation is a single DEL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func tenantKey(bot string) string {
	return "catalog:config:" + bot
}

func (r *Redis) Get(ctx context.Context, bot, key string) (string, bool, error) {
	value, err := r.client.HGet(ctx, tenantKey(bot), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, bot, key, value string) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, tenantKey(bot), key, value)
	pipe.Expire(ctx, tenantKey(bot), r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) DeleteTenant(ctx context.Context, bot string) error {
	return r.client.Del(ctx, tenantKey(bot)).Err()
}

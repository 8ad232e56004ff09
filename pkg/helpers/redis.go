package helpers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client shared by locks, sessions and rate limits.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// RedisHSetTTL writes fields into a hash and refreshes its expiry in one round trip.
func RedisHSetTTL(ctx context.Context, rdb *redis.Client, key string, fields map[string]any, ttl time.Duration) error {
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// RedisHGet returns "" without error when the hash or field is missing.
func RedisHGet(ctx context.Context, rdb *redis.Client, key, field string) (string, error) {
	v, err := rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func RedisDel(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}

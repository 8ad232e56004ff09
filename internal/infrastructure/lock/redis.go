package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisRetryDelay = 25 * time.Millisecond

// release only deletes the key if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by SET NX PX leases, shared across processes.
// The lease TTL bounds how long a crashed holder can block a key.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{rdb: rdb, ttl: ttl, logger: logger}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisRetryDelay):
		}
	}

	return func() {
		// release with a fresh context so a cancelled request still frees the lease
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(c, r.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			if r.logger != nil {
				r.logger.WithError(err).WithField("key", key).Warn("redis lock release failed")
			}
		}
	}, nil
}

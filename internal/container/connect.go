package container

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/config"
	pginfra "github.com/oksasatya/invest-payout-engine/internal/infrastructure/postgres"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

// Connect opens the infrastructure clients cfg asks for, stores them in the
// container and returns a cleanup func. The ledger store and the lock backend
// are required; RabbitMQ, Elasticsearch and GCS are optional and only logged
// when unreachable.
func Connect(ctx context.Context, c *config.Config, log *logrus.Logger) (func(), error) {
	SetConfig(c)
	SetLogger(log)
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if c.LedgerBackend == "postgres" {
		pool, err := pginfra.NewPool(ctx, c.PostgresDSN(), pginfra.PoolOptions{
			AppName:     c.AppName,
			MaxConns:    c.DBMaxConns,
			MinConns:    c.DBMinConns,
			MaxConnLife: c.DBMaxConnLife,
		})
		if err != nil {
			return cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := pginfra.RunMigrations(c.PostgresDSN(), c.MigrationsDir, log); err != nil {
			cleanup()
			return func() {}, fmt.Errorf("migrate: %w", err)
		}
		SetPGPool(pool)
	}

	if c.RedisAddr != "" {
		rdb := helpers.NewRedisClient(c.RedisAddr, c.RedisPassword, c.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pctx).Err()
		cancel()
		switch {
		case err == nil:
			closers = append(closers, func() { _ = rdb.Close() })
			SetRedis(rdb)
		case c.LockBackend == "redis":
			_ = rdb.Close()
			cleanup()
			return func() {}, fmt.Errorf("connect redis: %w", err)
		default:
			_ = rdb.Close()
			log.WithError(err).Warn("redis unreachable; sessions and rate limits disabled")
		}
	}

	if c.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(c.RabbitMQURL, c.RabbitMQPayoutQueue)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unreachable; payout notifications disabled")
		} else {
			closers = append(closers, pub.Close)
			SetRabbitPub(pub)
		}
	}

	if addrs := c.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, c.ElasticsearchUser, c.ElasticsearchPass)
		if err != nil {
			log.WithError(err).Warn("elasticsearch client init failed; search disabled")
		} else {
			SetES(es)
		}
	}

	if c.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, c.GCSCredentialsJSONPath)
		if err != nil {
			log.WithError(err).Warn("gcs client init failed; statements disabled")
		} else {
			closers = append(closers, func() { _ = gcs.Close() })
			SetGCS(gcs)
		}
	}

	SetJWT(helpers.NewJWTManager(c.JWTAccessSecret, c.JWTRefreshSecret, c.AccessTTL, c.RefreshTTL))
	return cleanup, nil
}

package container

import (
	"errors"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/config"
	"github.com/oksasatya/invest-payout-engine/internal/application"
	"github.com/oksasatya/invest-payout-engine/internal/domain/payout"
	"github.com/oksasatya/invest-payout-engine/internal/domain/repository"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/kvledger"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/lock"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/memory"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/notify"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/postgres"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/search"
	"github.com/oksasatya/invest-payout-engine/internal/infrastructure/statement"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

// app-level container to share constructed components across packages.
// Entry points set the infrastructure clients, call Bootstrap, and the router
// auto-wires modules from the resulting services.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client

	investmentSvc *application.InvestmentService
	accountSvc    *application.AccountService
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func GetInvestmentService() *application.InvestmentService { return investmentSvc }
func GetAccountService() *application.AccountService       { return accountSvc }

// Bootstrap builds the ledger, the locker and both services from whatever
// clients were set. Optional collaborators stay nil when their client is.
func Bootstrap() error {
	if cfg == nil {
		return errors.New("container: config not set")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if jwtManager == nil {
		jwtManager = helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	}

	kv, err := newKVStore()
	if err != nil {
		return err
	}
	ledger := kvledger.NewRepository(kv)

	locker, err := newLocker()
	if err != nil {
		return err
	}

	svc := application.NewInvestmentService(ledger, locker, payout.NewSchedule(cfg.PayoutLocation()), cfg.MinInvestment, logger)
	if rabbitPub != nil {
		svc.Notifier = notify.NewPayoutNotifier(rabbitPub)
	}
	if esClient != nil && cfg.ESInvestmentsIndex != "" {
		svc.Indexer = search.NewInvestmentIndex(esClient, cfg.ESInvestmentsIndex)
	}
	if gcsClient != nil && cfg.GCSBucket != "" {
		svc.Statements = statement.NewGCSStore(gcsClient, cfg.GCSBucket, cfg.PayoutLocation())
	}
	investmentSvc = svc
	accountSvc = application.NewAccountService(ledger, locker, jwtManager, redisClient, logger)

	logger.WithFields(logrus.Fields{
		"ledger":     cfg.LedgerBackend,
		"lock":       cfg.LockBackend,
		"notifier":   svc.Notifier != nil,
		"indexer":    svc.Indexer != nil,
		"statements": svc.Statements != nil,
	}).Info("services ready")
	return nil
}

func newKVStore() (repository.KVStore, error) {
	switch strings.ToLower(cfg.LedgerBackend) {
	case "memory":
		return memory.NewKVStore(), nil
	case "", "postgres":
		if pgPool == nil {
			return nil, errors.New("container: postgres ledger requires a pool")
		}
		return postgres.NewKVStore(pgPool), nil
	default:
		return nil, errors.New("container: unknown LEDGER_BACKEND " + cfg.LedgerBackend)
	}
}

func newLocker() (application.Locker, error) {
	switch strings.ToLower(cfg.LockBackend) {
	case "memory":
		return lock.NewKeyed(), nil
	case "", "redis":
		if redisClient == nil {
			return nil, errors.New("container: redis lock requires a redis client")
		}
		return lock.NewRedis(redisClient, cfg.LockTTL, logger), nil
	default:
		return nil, errors.New("container: unknown LOCK_BACKEND " + cfg.LockBackend)
	}
}

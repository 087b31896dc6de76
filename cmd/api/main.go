package main

import (
	"context"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/memory"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/messaging"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	serviceName    = "storefront-api"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//トレース
	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		log.Fatal("init tracer", zap.Error(err))
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	//メトリクス（プロセス/Goランタイムも出す）
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := openStore(cfg, log)

	opts := server.Options{
		Store:           store,
		JWTSecret:       cfg.JWTSecret,
		TokenTTL:        cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		AuthRateLimit:   cfg.AuthRateLimit,
		Metrics:         m,
		Log:             log,
	}

	//チェックアウトロック（Redis）。無ければロックなし
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, checkout lock will be skipped on error", zap.Error(err))
		}
		opts.Locker = cache.NewRedisCheckoutLock(rdb, cfg.CheckoutLockTTL)
	}

	//注文イベント（Kafka）
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		defer func() { _ = producer.Close() }()
		opts.Events = producer
	}

	e := server.New(opts)
	if err := server.Start(ctx, e, cfg.Addr(), log); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}

// STORE_DRIVER=memory はDBなしで起動する（再起動で消える）
func openStore(cfg config.Config, log *zap.Logger) repository.Store {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using in-memory store")
		return memory.NewStore()
	}

	gormDB, err := db.Connect(cfg.DSN(), !cfg.IsProd())
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	if cfg.DBAutoMigrate {
		if err := db.AutoMigrate(gormDB); err != nil {
			log.Fatal("auto migrate", zap.Error(err))
		}
	}
	return infraRepo.NewGormStore(gormDB)
}

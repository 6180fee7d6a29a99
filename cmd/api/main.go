package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	"storefront/internal/infra/session"
	"storefront/internal/logging"
	"storefront/internal/server"
	checkout "storefront/internal/usecase/checkout_usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	//.envは無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	//セッション（redis）
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("redis ping failed", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}
	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)

	//注文イベント（ブローカー未設定なら送らない）
	var publisher checkout.OrderPublisher = events.NoopOrderPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaOrderPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		defer kp.Close()
		publisher = kp
	}

	e := server.NewApp(logger, server.Deps{
		Config:     cfg,
		DB:         gormDB,
		Sessions:   sessions,
		Publisher:  publisher,
		BcryptCost: 12,
	})

	//Server起動
	if err := server.Start(ctx, e, cfg.Addr(), logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

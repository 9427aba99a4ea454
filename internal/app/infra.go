package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/config"
	"github.com/mocky70025/eventplatform-real-sub003/internal/db"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/redis"
)

type Infra struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config, log *logger.Logger) (*Infra, error) {
	gdb, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrateAll(gdb); err != nil {
		return nil, err
	}

	// One-time backfill: link legacy tenant rows to their unified
	// account before any user_id lookup runs.
	if err := db.BackfillTenantUserIDs(gdb); err != nil {
		return nil, err
	}

	log.Info("database ready")

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	log.Info("redis ready")

	return &Infra{
		DB:    gdb,
		Redis: redisClient,
	}, nil
}

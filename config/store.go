package config

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/utils"
)

// InitStore opens the durable key/value store selected by STORE_DRIVER.
// The returned func releases its connection.
func InitStore(ctx context.Context, cfg *Config) (database.Store, func() error, error) {
	switch cfg.StoreDriver {
	case "", "memory":
		utils.InfoLogger.Warn("Using in-memory store, table data is lost on restart")
		return database.NewMemoryStore(), func() error { return nil }, nil

	case "sqlite", "mysql":
		db, err := database.OpenGorm(cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate store: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		utils.InfoLogger.Infof("Using %s store", cfg.StoreDriver)
		return database.NewGormStore(db), sqlDB.Close, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		utils.InfoLogger.Infof("Using redis store at %s", cfg.RedisAddr)
		return database.NewRedisStore(client, 0), client.Close, nil
	}
	return nil, nil, fmt.Errorf("STORE_DRIVER %q is not supported", cfg.StoreDriver)
}

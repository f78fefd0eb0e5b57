package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"portal_backend/internal/config"
)

// NewRedisClient は Redis への接続を確立し、疎通を確認して返します。
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 接続確認
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("Redis connection failed", "address", cfg.Redis.Addr, "error", err)
		return nil, err
	}

	slog.Info("Redis connection successful", "address", cfg.Redis.Addr)
	return rdb, nil
}

package database

import (
	"context"
	"course_sync/internal/config"
	"course_sync/pkg/logger"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func redisOptions(cfg *config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: 1,
	}
}

// InitRedis 连接不可用时关闭客户端并返回错误
func InitRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opts := redisOptions(cfg)
	rdb := redis.NewClient(opts)

	timeout := time.Duration(cfg.PingTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s db %d: %w", opts.Addr, opts.DB, err)
	}

	logger.Log.Info("Redis progress store connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("poolSize", opts.PoolSize))
	return rdb, nil
}

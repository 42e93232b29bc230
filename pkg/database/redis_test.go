package database

import (
	"context"
	"course_sync/internal/config"
	"testing"
)

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(&config.RedisConfig{Host: "cache", Port: 6380, DB: 2})
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.PoolSize != 4 {
		t.Errorf("expected default pool size 4, got %d", opts.PoolSize)
	}
}

func TestInitRedisUnreachable(t *testing.T) {
	_, err := InitRedis(context.Background(), &config.RedisConfig{Host: "127.0.0.1", Port: 1, PingTimeoutSeconds: 1})
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

package repository

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/util"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVStore 简单的字符串键值存储，值为 JSON 序列化后的记录
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", util.ErrStorage, op, key, err)
}

// GormKVStore 基于 kv_entries 表（sqlite / mysql）
type GormKVStore struct {
	DB *gorm.DB
}

func NewGormKVStore(db *gorm.DB) *GormKVStore {
	return &GormKVStore{DB: db}
}

func (s *GormKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.KVEntry
	err := s.DB.WithContext(ctx).Where("`key` = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get", key, err)
	}
	return entry.Value, true, nil
}

func (s *GormKVStore) Set(ctx context.Context, key, value string) error {
	entry := model.KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (s *GormKVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.DB.WithContext(ctx).Where("`key` IN ?", keys).Delete(&model.KVEntry{}).Error; err != nil {
		return storageErr("delete", strings.Join(keys, ","), err)
	}
	return nil
}

func (s *GormKVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var candidates []string
	err := s.DB.WithContext(ctx).Model(&model.KVEntry{}).
		Where("`key` LIKE ?", prefix+"%").
		Order("`key`").
		Pluck("key", &candidates).Error
	if err != nil {
		return nil, storageErr("keys", prefix, err)
	}

	// LIKE 中的 _ 会匹配任意字符，这里再精确过滤一次
	keys := candidates[:0]
	for _, k := range candidates {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *GormKVStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return storageErr("ping", "", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageErr("ping", "", err)
	}
	return nil
}

// RedisKVStore 所有键加上统一前缀，避免与其他应用冲突
type RedisKVStore struct {
	Redis  *redis.Client
	Prefix string
}

func NewRedisKVStore(rdb *redis.Client, prefix string) *RedisKVStore {
	return &RedisKVStore{Redis: rdb, Prefix: prefix}
}

func (s *RedisKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.Redis.Get(ctx, s.Prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get", key, err)
	}
	return val, true, nil
}

func (s *RedisKVStore) Set(ctx context.Context, key, value string) error {
	if err := s.Redis.Set(ctx, s.Prefix+key, value, 0).Err(); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (s *RedisKVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.Prefix + k
	}
	if err := s.Redis.Del(ctx, full...).Err(); err != nil {
		return storageErr("delete", strings.Join(keys, ","), err)
	}
	return nil
}

func (s *RedisKVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.Redis.Scan(ctx, cursor, s.Prefix+prefix+"*", 100).Result()
		if err != nil {
			return nil, storageErr("keys", prefix, err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.Prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisKVStore) Ping(ctx context.Context) error {
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		return storageErr("ping", "", err)
	}
	return nil
}

// MemoryKVStore 进程内存储，用于测试和 memory 驱动
type MemoryKVStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{data: make(map[string]string)}
}

func (s *MemoryKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryKVStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryKVStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *MemoryKVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryKVStore) Ping(ctx context.Context) error {
	return nil
}

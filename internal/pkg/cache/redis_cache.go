package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// keyPrefix 多个服务共用一个 Redis 时避免 key 冲突
const keyPrefix = "cloudbox:"

// RedisCache 值以 JSON 存储
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: 序列化 %s 失败: %w", key, err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, data, expiration).Err(); err != nil {
		logger.Warn("RedisCache.Set 失败", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache: 写入 %s 失败: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, target any) error {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		logger.Warn("RedisCache.Get 失败", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache: 读取 %s 失败: %w", key, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		// 格式不对的旧值直接丢弃，按未命中处理
		_ = r.client.Del(ctx, keyPrefix+key).Err()
		logger.Warn("RedisCache.Get 缓存值无法解析，已删除", zap.String("key", key), zap.Error(err))
		return ErrCacheMiss
	}
	return nil
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		logger.Warn("RedisCache.Del 失败", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache: 删除失败: %w", err)
	}
	return nil
}

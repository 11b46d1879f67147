package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrCacheMiss error = errors.New("缓存未命中,key不存在")

// 缓存通用接口
type Cache interface {
	// Set在缓存中设置一个值，并指定过期时间。
	// value应该是一个可以被JSON封送的结构体或指向结构体的指针。
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Get从缓存中检索一个值，并将其解编组到目标接口。
	// target应该是一个指针，指向希望解编组成的类型。key 不存在时返回 ErrCacheMiss
	Get(ctx context.Context, key string, target any) error

	// 删除一个或多个key
	Del(ctx context.Context, keys ...string) error
}

// NopCache 在未启用 Redis 时使用，所有读取都未命中
type NopCache struct{}

var _ Cache = NopCache{}

func (NopCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return nil
}

func (NopCache) Get(ctx context.Context, key string, target any) error {
	return ErrCacheMiss
}

func (NopCache) Del(ctx context.Context, keys ...string) error {
	return nil
}

// GeneratePublicTokenKey 公开链接 token -> 文件 ID
func GeneratePublicTokenKey(token string) string {
	return fmt.Sprintf("public:token:%s", token)
}

// GenerateStorageUsageKey 用户已用存储空间
func GenerateStorageUsageKey(userID string) string {
	return fmt.Sprintf("storage:usage:user:%s", userID)
}

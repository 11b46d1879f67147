// Package testutil 为各包的测试提供内存数据库和外部依赖的替身
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/mailer"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/setup"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB 每个测试一个独立的内存 sqlite 库
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := setup.InitDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { setup.CloseDatabase(db) })
	return db
}

// Config 测试使用的最小配置
func Config() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{FrontendURL: "http://localhost:3000"},
		Storage: config.StorageConfig{
			Type:               "memory",
			PresignedURLExpiry: 2 * time.Hour,
			MaxUploadSize:      1 << 20,
			QuotaBytes:         10 << 20,
		},
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpiresIn: time.Hour, Issuer: "go-cloudbox"},
	}
}

// MemoryStorage 内存对象存储
type MemoryStorage struct {
	mu         sync.Mutex
	Objects    map[string][]byte
	types      map[string]string
	FailPut    bool
	FailRemove bool
}

var _ storage.StorageService = (*MemoryStorage)(nil)

var ErrInjected = errors.New("injected storage failure")

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *MemoryStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (storage.PutObjectResult, error) {
	if s.FailPut {
		return storage.PutObjectResult{}, ErrInjected
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, reader)
	if err != nil {
		return storage.PutObjectResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = buf.Bytes()
	s.types[key] = contentType
	return storage.PutObjectResult{Key: key, Size: n}, nil
}

func (s *MemoryStorage) RemoveObject(ctx context.Context, key string) error {
	if s.FailRemove {
		return ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

func (s *MemoryStorage) PresignGetObject(ctx context.Context, key string, expiry time.Duration, downloadName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Objects[key]; !ok {
		return "", ErrInjected
	}
	return fmt.Sprintf("https://storage.test/%s?expires=%d", key, int(expiry.Seconds())), nil
}

// PresignPutObject 测试中客户端直传用 PutObject 模拟
func (s *MemoryStorage) PresignPutObject(ctx context.Context, key string, expiry time.Duration, contentType string) (string, error) {
	if s.FailPut {
		return "", ErrInjected
	}
	return fmt.Sprintf("https://storage.test/upload/%s?expires=%d", key, int(expiry.Seconds())), nil
}

func (s *MemoryStorage) StatObject(ctx context.Context, key string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.Objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: s.types[key]}, nil
}

func (s *MemoryStorage) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}

// MemoryCache 内存缓存，序列化行为与 RedisCache 保持一致
type MemoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ cache.Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: map[string][]byte{}}
}

func (c *MemoryCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *MemoryCache) Get(ctx context.Context, key string, target any) error {
	c.mu.Lock()
	b, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, target)
}

func (c *MemoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *MemoryCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// RecordingSender 记录所有发出的邮件
type RecordingSender struct {
	mu       sync.Mutex
	Messages []mailer.Message
	Fail     bool
}

var _ mailer.Sender = (*RecordingSender)(nil)

func (s *RecordingSender) Send(ctx context.Context, msg mailer.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if s.Fail {
		return mailer.ErrSendFailed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
	return nil
}

func (s *RecordingSender) Sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.Messages...)
}

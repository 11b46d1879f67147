package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
)

// StorageService 定义了通用的文件存储操作接口
// 不同后端（MinIO、阿里云 OSS、S3、本地磁盘）在构造时绑定各自的存储桶
type StorageService interface {
	// 上传对象，返回存储对象的信息或错误
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (PutObjectResult, error)
	// 删除对象，对象不存在不视为错误
	RemoveObject(ctx context.Context, key string) error
	// 生成带有效期的下载地址，downloadName 用于浏览器保存文件时的文件名
	PresignGetObject(ctx context.Context, key string, expiry time.Duration, downloadName string) (string, error)
	// 生成客户端直传用的 PUT 地址，上传时必须带上相同的 Content-Type
	PresignPutObject(ctx context.Context, key string, expiry time.Duration, contentType string) (string, error)
	// 查询对象信息，对象不存在时返回 ErrObjectNotFound
	StatObject(ctx context.Context, key string) (ObjectInfo, error)
}

// BucketManager 由需要预先创建存储桶的后端实现
type BucketManager interface {
	IsBucketExist(ctx context.Context) (bool, error)
	MakeBucket(ctx context.Context) error
}

type PutObjectResult struct {
	Key  string
	Size int64
	ETag string // 对象哈希值，本地存储为空
}

// ObjectInfo 后端没有记录内容类型时 ContentType 为空
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	ETag        string
}

var (
	ErrInvalidKey     = errors.New("invalid object key")
	ErrObjectNotFound = errors.New("object not found")
)

// NewStorageService 根据 storage.type 选择存储后端
func NewStorageService(ctx context.Context, cfg *config.Config) (StorageService, error) {
	switch cfg.Storage.Type {
	case "minio":
		return NewMinIOStorageService(&cfg.MinIO)
	case "aliyun_oss":
		return NewAliyunOSSStorageService(&cfg.AliyunOSS)
	case "s3":
		return NewS3StorageService(ctx, &cfg.S3)
	case "local":
		return NewLocalStorageService(&cfg.Storage)
	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.Storage.Type)
	}
}

// CleanKey 校验对象 key，拒绝绝对路径和 ".." 之类的越界路径
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// contentDisposition 生成下载头，文件名按 RFC 5987 编码以支持中文
func contentDisposition(name string) string {
	if name == "" {
		return "attachment"
	}
	return fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name))
}

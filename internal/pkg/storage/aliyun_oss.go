package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"
)

type AliyunOSSStorageService struct {
	client *oss.Client
	bucket *oss.Bucket
	name   string
}

var (
	_ StorageService = (*AliyunOSSStorageService)(nil)
	_ BucketManager  = (*AliyunOSSStorageService)(nil)
)

// NewAliyunOSSStorageService 创建并返回一个 AliyunOSSStorageService 实例
func NewAliyunOSSStorageService(cfg *config.AliyunOSSConfig) (*AliyunOSSStorageService, error) {
	// OSS Endpoint 应该包含 http:// 或 https:// 前缀
	ossClient, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		logger.Error("初始化阿里云OSS客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化阿里云OSS客户端: %w", err)
	}
	bucket, err := ossClient.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("获取OSS存储桶失败: %w", err)
	}
	logger.Info("阿里云OSS客户端初始化成功", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.BucketName))
	return &AliyunOSSStorageService{
		client: ossClient,
		bucket: bucket,
		name:   cfg.BucketName,
	}, nil
}

// PutObject OSS SDK 不接收 context，超时由 SDK 自身的连接配置控制
func (s *AliyunOSSStorageService) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (PutObjectResult, error) {
	if err := s.bucket.PutObject(key, reader, oss.ContentType(contentType)); err != nil {
		return PutObjectResult{}, fmt.Errorf("阿里云OSS上传文件失败: %w", err)
	}
	// PutObject 本身不返回对象信息，这里使用传入的大小
	return PutObjectResult{
		Key:  key,
		Size: size,
	}, nil
}

func (s *AliyunOSSStorageService) RemoveObject(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(key); err != nil {
		return fmt.Errorf("阿里云OSS删除文件失败: %w", err)
	}
	return nil
}

func (s *AliyunOSSStorageService) PresignGetObject(ctx context.Context, key string, expiry time.Duration, downloadName string) (string, error) {
	signedURL, err := s.bucket.SignURL(key, oss.HTTPGet, int64(expiry.Seconds()),
		oss.ResponseContentDisposition(contentDisposition(downloadName)))
	if err != nil {
		return "", fmt.Errorf("生成阿里云OSS签名URL失败: %w", err)
	}
	return signedURL, nil
}

func (s *AliyunOSSStorageService) PresignPutObject(ctx context.Context, key string, expiry time.Duration, contentType string) (string, error) {
	signedURL, err := s.bucket.SignURL(key, oss.HTTPPut, int64(expiry.Seconds()), oss.ContentType(contentType))
	if err != nil {
		return "", fmt.Errorf("生成阿里云OSS上传地址失败: %w", err)
	}
	return signedURL, nil
}

func (s *AliyunOSSStorageService) StatObject(ctx context.Context, key string) (ObjectInfo, error) {
	header, err := s.bucket.GetObjectDetailedMeta(key)
	if err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, fmt.Errorf("查询阿里云OSS对象失败: %w", err)
	}
	size, err := strconv.ParseInt(header.Get(oss.HTTPHeaderContentLength), 10, 64)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("解析阿里云OSS对象大小失败: %w", err)
	}
	return ObjectInfo{
		Key:         key,
		Size:        size,
		ContentType: header.Get(oss.HTTPHeaderContentType),
		ETag:        strings.Trim(header.Get(oss.HTTPHeaderEtag), `"`),
	}, nil
}

func (s *AliyunOSSStorageService) IsBucketExist(ctx context.Context) (bool, error) {
	exists, err := s.client.IsBucketExist(s.name)
	if err != nil {
		return false, fmt.Errorf("检查阿里云OSS存储桶存在性失败: %w", err)
	}
	return exists, nil
}

func (s *AliyunOSSStorageService) MakeBucket(ctx context.Context) error {
	if err := s.client.CreateBucket(s.name); err != nil {
		return fmt.Errorf("创建阿里云OSS存储桶失败: %w", err)
	}
	return nil
}

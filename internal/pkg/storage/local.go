package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

var (
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrSignatureExpired = errors.New("signature expired")
)

// LocalStorageService 把对象保存在本地磁盘
// 下载地址由 HMAC 签名，经 /blobs 路由校验后返回文件内容
type LocalStorageService struct {
	basePath string
	baseURL  string
	signKey  []byte
	now      func() time.Time
}

var _ StorageService = (*LocalStorageService)(nil)

func NewLocalStorageService(cfg *config.StorageConfig) (*LocalStorageService, error) {
	if cfg.LocalSignKey == "" {
		return nil, errors.New("storage.local_sign_key 不能为空")
	}
	if err := os.MkdirAll(cfg.LocalBasePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败: %w", err)
	}
	logger.Info("本地存储服务初始化成功", zap.String("basePath", cfg.LocalBasePath))
	return &LocalStorageService{
		basePath: cfg.LocalBasePath,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		signKey:  []byte(cfg.LocalSignKey),
		now:      time.Now,
	}, nil
}

func (s *LocalStorageService) objectPath(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}

func (s *LocalStorageService) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (PutObjectResult, error) {
	p, err := s.objectPath(key)
	if err != nil {
		return PutObjectResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return PutObjectResult{}, fmt.Errorf("创建对象目录失败: %w", err)
	}

	// 先写临时文件再改名，避免写到一半的对象被读取
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return PutObjectResult{}, fmt.Errorf("创建临时文件失败: %w", err)
	}
	written, err := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return PutObjectResult{}, fmt.Errorf("写入本地文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return PutObjectResult{}, fmt.Errorf("保存本地文件失败: %w", err)
	}

	return PutObjectResult{Key: key, Size: written}, nil
}

func (s *LocalStorageService) RemoveObject(ctx context.Context, key string) error {
	p, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除本地文件失败: %w", err)
	}
	return nil
}

func (s *LocalStorageService) PresignGetObject(ctx context.Context, key string, expiry time.Duration, downloadName string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	expires := s.now().Add(expiry).Unix()

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	if downloadName != "" {
		q.Set("name", downloadName)
	}
	q.Set("sig", s.sign(http.MethodGet, cleaned, expires, downloadName))
	return fmt.Sprintf("%s/%s?%s", s.baseURL, cleaned, q.Encode()), nil
}

// PresignPutObject 本地存储不校验 Content-Type，签名只绑定 key 和过期时间
func (s *LocalStorageService) PresignPutObject(ctx context.Context, key string, expiry time.Duration, contentType string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	expires := s.now().Add(expiry).Unix()

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.sign(http.MethodPut, cleaned, expires, ""))
	return fmt.Sprintf("%s/%s?%s", s.baseURL, cleaned, q.Encode()), nil
}

// StatObject 本地文件没有保存内容类型，按文件头识别
func (s *LocalStorageService) StatObject(ctx context.Context, key string) (ObjectInfo, error) {
	p, err := s.objectPath(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, fmt.Errorf("查询本地文件失败: %w", err)
	}
	if info.IsDir() {
		return ObjectInfo{}, ErrObjectNotFound
	}

	contentType := ""
	if mt, err := mimetype.DetectFile(p); err == nil {
		contentType = mt.String()
	}
	return ObjectInfo{Key: key, Size: info.Size(), ContentType: contentType}, nil
}

// Verify 校验下载地址的参数
func (s *LocalStorageService) Verify(key, expires, name, sig string) error {
	return s.verify(http.MethodGet, key, expires, name, sig)
}

// VerifyUpload 校验直传地址的参数
func (s *LocalStorageService) VerifyUpload(key, expires, sig string) error {
	return s.verify(http.MethodPut, key, expires, "", sig)
}

func (s *LocalStorageService) verify(method, key, expires, name, sig string) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}
	expected := s.sign(method, cleaned, exp, name)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrSignatureInvalid
	}
	if s.now().Unix() > exp {
		return ErrSignatureExpired
	}
	return nil
}

// Open 打开对象，调用方负责关闭
func (s *LocalStorageService) Open(key string) (*os.File, error) {
	p, err := s.objectPath(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// sign 方法参与签名，下载地址不能用来上传
func (s *LocalStorageService) sign(method, key string, expires int64, name string) string {
	mac := hmac.New(sha256.New, s.signKey)
	fmt.Fprintf(mac, "%s\n%s\n%d\n%s", method, key, expires, name)
	return hex.EncodeToString(mac.Sum(nil))
}

package explorer

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const directUploadTTL = 15 * time.Minute

// InitUploadRequest 客户端直传前申请上传地址
type InitUploadRequest struct {
	FolderID *string
	Name     string
	MimeType string
	Size     int64
}

// UploadTicket 客户端按 Method、Headers 把文件内容发到 UploadURL
type UploadTicket struct {
	Key       string            `json:"key"`
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// CompleteUploadRequest 直传完成后登记文件，大小以存储中的对象为准
type CompleteUploadRequest struct {
	Key      string
	FolderID *string
	Name     string
	MimeType string
}

// InitUpload 校验后签发一个新 key 的上传地址，此时还不创建文件记录
func (s *fileService) InitUpload(ctx context.Context, actorID string, req InitUploadRequest) (*UploadTicket, error) {
	name, err := s.validateUpload(ctx, actorID, req.Name, req.FolderID, req.Size)
	if err != nil {
		return nil, err
	}
	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	key := generateStorageKey(actorID, name)
	url, err := s.storage.PresignPutObject(ctx, key, directUploadTTL, mimeType)
	if err != nil {
		logger.Error("InitUpload: 生成上传地址失败", zap.String("userID", actorID), zap.String("key", key), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrStorageError, err)
	}

	logger.Info("InitUpload: 已签发上传地址", zap.String("userID", actorID), zap.String("key", key))
	return &UploadTicket{
		Key:       key,
		UploadURL: url,
		Method:    http.MethodPut,
		Headers:   map[string]string{"Content-Type": mimeType},
		ExpiresAt: s.now().Add(directUploadTTL),
	}, nil
}

// CompleteUpload key 必须是当前用户名下的；被拒绝的对象会从存储中删除
func (s *fileService) CompleteUpload(ctx context.Context, actorID string, req CompleteUploadRequest) (*models.File, error) {
	key, err := storage.CleanKey(req.Key)
	if err != nil || !strings.HasPrefix(key, actorID+"/") {
		return nil, xerr.ErrInvalidUploadKey
	}
	name, err := ValidateName(req.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.fileRepo.ExistsByStorageKey(ctx, key)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if exists {
		return nil, xerr.ErrUploadAlreadyCompleted
	}

	info, err := s.storage.StatObject(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, xerr.ErrUploadNotFound
	}
	if err != nil {
		logger.Error("CompleteUpload: 查询存储对象失败", zap.String("key", key), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrStorageError, err)
	}

	if _, err := s.validateUpload(ctx, actorID, name, req.FolderID, info.Size); err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	file := &models.File{
		Name:       name,
		StorageKey: key,
		MimeType:   completedMimeType(req.MimeType, info.ContentType),
		Size:       info.Size,
		UserID:     actorID,
		FolderID:   req.FolderID,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xerr.ErrUploadAlreadyCompleted
		}
		logger.Error("CompleteUpload: 创建文件记录失败", zap.String("userID", actorID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	s.reindex(ctx, file)
	invalidate(ctx, s.cache, cache.GenerateStorageUsageKey(actorID))

	logger.Info("CompleteUpload: 直传文件登记成功",
		zap.String("userID", actorID),
		zap.String("fileID", file.ID),
		zap.Int64("size", file.Size))
	return file, nil
}

func (s *fileService) discard(ctx context.Context, key string) {
	if err := s.storage.RemoveObject(ctx, key); err != nil {
		logger.Warn("CompleteUpload: 删除被拒绝的对象失败", zap.String("key", key), zap.Error(err))
	}
}

// completedMimeType 客户端声明的类型优先，其次是存储记录的类型
func completedMimeType(declared, stored string) string {
	for _, t := range []string{declared, stored} {
		t = strings.TrimSpace(t)
		if t != "" && t != defaultMimeType {
			return t
		}
	}
	return defaultMimeType
}

package explorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload 单次上传：校验大小和配额，写入对象存储后再落库
func (s *fileService) Upload(ctx context.Context, actorID string, req UploadRequest) (*models.File, error) {
	if req.Content == nil {
		return nil, xerr.ErrEmptyUpload
	}
	name, err := s.validateUpload(ctx, actorID, req.Name, req.FolderID, req.Size)
	if err != nil {
		return nil, err
	}

	content, mimeType, err := detectMimeType(req.Content, req.MimeType)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrInvalidParams, err)
	}

	// 1. 写入对象存储，key 与文件名无关，重命名不需要移动对象
	key := generateStorageKey(actorID, name)
	if _, err := s.storage.PutObject(ctx, key, content, req.Size, mimeType); err != nil {
		logger.Error("Upload: 写入对象存储失败",
			zap.String("userID", actorID),
			zap.String("key", key),
			zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrStorageError, err)
	}

	// 2. 落库，失败时清理已上传的对象
	file := &models.File{
		Name:       name,
		StorageKey: key,
		MimeType:   mimeType,
		Size:       req.Size,
		UserID:     actorID,
		FolderID:   req.FolderID,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		logger.Error("Upload: 创建文件记录失败", zap.String("userID", actorID), zap.Error(err))
		if rmErr := s.storage.RemoveObject(ctx, key); rmErr != nil {
			logger.Warn("Upload: 清理孤立对象失败", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	s.reindex(ctx, file)
	invalidate(ctx, s.cache, cache.GenerateStorageUsageKey(actorID))

	logger.Info("Upload: 文件上传成功",
		zap.String("userID", actorID),
		zap.String("fileID", file.ID),
		zap.Int64("size", file.Size))
	return file, nil
}

// validateUpload 直传和普通上传共用：大小、文件名、目标目录和配额
func (s *fileService) validateUpload(ctx context.Context, actorID, name string, folderID *string, size int64) (string, error) {
	if size <= 0 {
		return "", xerr.ErrEmptyUpload
	}
	if limit := s.cfg.Storage.MaxUploadSize; limit > 0 && size > limit {
		return "", xerr.ErrFileTooLarge
	}
	name, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	if _, err := s.domainService.CheckTargetFolder(ctx, actorID, folderID); err != nil {
		return "", err
	}
	if err := s.checkQuota(ctx, actorID, size); err != nil {
		return "", err
	}
	return name, nil
}

func (s *fileService) checkQuota(ctx context.Context, actorID string, size int64) error {
	quota := s.cfg.Storage.QuotaBytes
	if quota <= 0 {
		return nil
	}
	used, err := s.fileRepo.SumActiveSize(ctx, actorID)
	if err != nil {
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if used+size > quota {
		logger.Warn("Upload: 超出存储配额",
			zap.String("userID", actorID),
			zap.Int64("used", used),
			zap.Int64("size", size),
			zap.Int64("quota", quota))
		return xerr.ErrQuotaExceeded
	}
	return nil
}

// generateStorageKey 生成 <userID>/<uuid><ext>
func generateStorageKey(userID, name string) string {
	return fmt.Sprintf("%s/%s%s", userID, uuid.New().String(), strings.ToLower(filepath.Ext(name)))
}

// detectMimeType 客户端没有给出具体类型时根据文件头判断，返回的 reader 仍包含完整内容
func detectMimeType(r io.Reader, declared string) (io.Reader, string, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != defaultMimeType {
		return r, declared, nil
	}

	header := make([]byte, sniffHeaderBytes)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("读取文件头失败: %w", err)
	}
	header = header[:n]
	detected := mimetype.Detect(header).String()
	if detected == "" {
		detected = defaultMimeType
	}
	return io.MultiReader(bytes.NewReader(header), r), detected, nil
}

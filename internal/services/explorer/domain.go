package explorer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"go.uber.org/zap"
)

const maxNameLength = 255

// maxFolderDepth 向上遍历祖先链的上限，防止脏数据导致死循环
const maxFolderDepth = 1024

// FolderDomainService 文件夹层级相关的业务规则
type FolderDomainService interface {
	// CheckTargetFolder 校验目标文件夹属于 ownerID 且未删除，folderID 为 nil 表示根目录
	CheckTargetFolder(ctx context.Context, ownerID string, folderID *string) (*models.Folder, error)
	// IsSelfOrDescendant 判断 targetID 是否是 folderID 本身或其子孙
	IsSelfOrDescendant(ctx context.Context, folderID, targetID string) (bool, error)
	// RestoreParent 恢复时使用的父目录：原父目录已删除或不存在时回到根目录
	RestoreParent(ctx context.Context, ownerID string, parentID *string) (*string, error)
}

type folderDomainService struct {
	folderRepo repositories.FolderRepository
}

var _ FolderDomainService = (*folderDomainService)(nil)

// NewFolderDomainService 创建文件夹领域服务实例
func NewFolderDomainService(folderRepo repositories.FolderRepository) FolderDomainService {
	return &folderDomainService{folderRepo: folderRepo}
}

func (s *folderDomainService) CheckTargetFolder(ctx context.Context, ownerID string, folderID *string) (*models.Folder, error) {
	if folderID == nil {
		return nil, nil
	}
	folder, err := s.folderRepo.FindByID(ctx, *folderID)
	if err != nil {
		logger.Error("CheckTargetFolder: 查询文件夹失败", zap.String("folderID", *folderID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if folder == nil {
		return nil, xerr.ErrDirectoryNotFound
	}
	// 不允许跨用户嵌套
	if folder.UserID != ownerID {
		logger.Warn("CheckTargetFolder: 目标文件夹不属于该用户",
			zap.String("folderID", folder.ID),
			zap.String("ownerID", ownerID))
		return nil, xerr.ErrPermissionDenied
	}
	if folder.Trashed {
		return nil, xerr.ErrTargetFolderTrashed
	}
	return folder, nil
}

func (s *folderDomainService) IsSelfOrDescendant(ctx context.Context, folderID, targetID string) (bool, error) {
	current := &targetID
	for depth := 0; current != nil && depth < maxFolderDepth; depth++ {
		if *current == folderID {
			return true, nil
		}
		folder, err := s.folderRepo.FindByID(ctx, *current)
		if err != nil {
			return false, xerr.Wrap(xerr.ErrDatabaseError, err)
		}
		if folder == nil {
			return false, nil
		}
		current = folder.ParentID
	}
	if current != nil {
		return false, fmt.Errorf("文件夹 %s 的层级超过 %d: %w", targetID, maxFolderDepth, xerr.ErrInvalidOperation)
	}
	return false, nil
}

func (s *folderDomainService) RestoreParent(ctx context.Context, ownerID string, parentID *string) (*string, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := s.folderRepo.FindByID(ctx, *parentID)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if parent == nil || parent.Trashed || parent.UserID != ownerID {
		logger.Info("RestoreParent: 原父目录不可用，恢复到根目录", zap.String("parentID", *parentID))
		return nil, nil
	}
	return parentID, nil
}

// ValidateName 文件和文件夹名称：去掉首尾空白后非空，不含路径分隔符
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", xerr.ErrFileNameInvalid
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return "", xerr.ErrFileNameInvalid
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", xerr.ErrFileNameInvalid
	}
	return name, nil
}

package explorer

import (
	"context"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/services/access"
	"go.uber.org/zap"
)

type FolderService interface {
	CreateFolder(ctx context.Context, actorID, name string, parentID *string) (*models.Folder, error)
	GetFolder(ctx context.Context, actorID, folderID string) (*models.Folder, error)
	ListFolders(ctx context.Context, actorID string, parentID *string) ([]models.Folder, error)
	RenameFolder(ctx context.Context, actorID, folderID, newName string) (*models.Folder, error)
	MoveFolder(ctx context.Context, actorID, folderID string, targetID *string) (*models.Folder, error)
}

type folderService struct {
	folderRepo    repositories.FolderRepository
	evaluator     access.Evaluator
	domainService FolderDomainService
}

var _ FolderService = (*folderService)(nil)

func NewFolderService(
	folderRepo repositories.FolderRepository,
	evaluator access.Evaluator,
	domainService FolderDomainService,
) FolderService {
	return &folderService{
		folderRepo:    folderRepo,
		evaluator:     evaluator,
		domainService: domainService,
	}
}

func (s *folderService) CreateFolder(ctx context.Context, actorID, name string, parentID *string) (*models.Folder, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.domainService.CheckTargetFolder(ctx, actorID, parentID); err != nil {
		return nil, err
	}

	folder := &models.Folder{Name: name, UserID: actorID, ParentID: parentID}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		logger.Error("CreateFolder: 创建文件夹失败", zap.String("userID", actorID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	logger.Info("CreateFolder: 文件夹创建成功", zap.String("userID", actorID), zap.String("folderID", folder.ID))
	return folder, nil
}

func (s *folderService) GetFolder(ctx context.Context, actorID, folderID string) (*models.Folder, error) {
	return s.evaluator.AuthorizeFolder(ctx, actorID, folderID, access.ActionView)
}

func (s *folderService) ListFolders(ctx context.Context, actorID string, parentID *string) ([]models.Folder, error) {
	if parentID != nil {
		if _, err := s.evaluator.AuthorizeFolder(ctx, actorID, *parentID, access.ActionView); err != nil {
			return nil, err
		}
	}
	folders, err := s.folderRepo.ListByParent(ctx, actorID, parentID)
	if err != nil {
		logger.Error("ListFolders: 查询失败", zap.String("userID", actorID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return folders, nil
}

func (s *folderService) RenameFolder(ctx context.Context, actorID, folderID, newName string) (*models.Folder, error) {
	name, err := ValidateName(newName)
	if err != nil {
		return nil, err
	}
	folder, err := s.evaluator.AuthorizeFolder(ctx, actorID, folderID, access.ActionRename)
	if err != nil {
		return nil, err
	}
	if folder.Name == name {
		return folder, nil
	}
	if err := s.folderRepo.Updates(ctx, folder.ID, map[string]any{"name": name}); err != nil {
		logger.Error("RenameFolder: 更新失败", zap.String("folderID", folder.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	folder.Name = name
	return folder, nil
}

// MoveFolder targetID 为 nil 时移动到根目录；不能移动到自身或自己的子孙目录下
func (s *folderService) MoveFolder(ctx context.Context, actorID, folderID string, targetID *string) (*models.Folder, error) {
	folder, err := s.evaluator.AuthorizeFolder(ctx, actorID, folderID, access.ActionMove)
	if err != nil {
		return nil, err
	}

	if targetID != nil {
		if *targetID == folder.ID {
			return nil, xerr.ErrCannotMoveIntoSelf
		}
		if _, err := s.domainService.CheckTargetFolder(ctx, folder.UserID, targetID); err != nil {
			return nil, err
		}
		inSubtree, err := s.domainService.IsSelfOrDescendant(ctx, folder.ID, *targetID)
		if err != nil {
			return nil, err
		}
		if inSubtree {
			logger.Warn("MoveFolder: 目标位于自身子树中",
				zap.String("folderID", folder.ID),
				zap.String("targetID", *targetID))
			return nil, xerr.ErrCannotMoveIntoSubtree
		}
	}
	if sameFolder(folder.ParentID, targetID) {
		return folder, nil
	}

	if err := s.folderRepo.Updates(ctx, folder.ID, map[string]any{"parent_id": targetID}); err != nil {
		logger.Error("MoveFolder: 更新失败", zap.String("folderID", folder.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	folder.ParentID = targetID

	logger.Info("MoveFolder: 文件夹移动成功", zap.String("folderID", folder.ID), zap.Any("targetID", targetID))
	return folder, nil
}

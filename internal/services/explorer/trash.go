package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/search"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/services/access"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TrashService 回收站状态机：Active -> Trashed -> Purged（删除记录）
// 删除文件夹不会级联到其中的文件和子文件夹
type TrashService interface {
	TrashFile(ctx context.Context, actorID, fileID string) error
	TrashFolder(ctx context.Context, actorID, folderID string) error
	RestoreFile(ctx context.Context, actorID, fileID string) (*models.File, error)
	RestoreFolder(ctx context.Context, actorID, folderID string) (*models.Folder, error)
	PurgeFile(ctx context.Context, actorID, fileID string) error
	PurgeFolder(ctx context.Context, actorID, folderID string) error
	EmptyTrash(ctx context.Context, actorID string) (*EmptyTrashResult, error)
	ListTrash(ctx context.Context, actorID string) (*TrashListing, error)
}

type TrashListing struct {
	Files   []models.File   `json:"files"`
	Folders []models.Folder `json:"folders"`
}

// EmptyTrashResult 清空回收站的统计，单个项目失败不会中断处理
type EmptyTrashResult struct {
	FilesPurged   int      `json:"files_purged"`
	FoldersPurged int      `json:"folders_purged"`
	Failed        int      `json:"failed"`
	Failures      []string `json:"failures,omitempty"`
	Err           error    `json:"-"` // 所有失败原因合并后的错误
}

type trashService struct {
	fileRepo           repositories.FileRepository
	folderRepo         repositories.FolderRepository
	shareRepo          repositories.ShareRepository
	evaluator          access.Evaluator
	domainService      FolderDomainService
	transactionManager TransactionManager
	storage            storage.StorageService
	cache              cache.Cache
	search             search.Engine
	now                func() time.Time
}

var _ TrashService = (*trashService)(nil)

func NewTrashService(
	fileRepo repositories.FileRepository,
	folderRepo repositories.FolderRepository,
	shareRepo repositories.ShareRepository,
	evaluator access.Evaluator,
	domainService FolderDomainService,
	transactionManager TransactionManager,
	storageService storage.StorageService,
	cacheClient cache.Cache,
	searchEngine search.Engine,
) TrashService {
	return &trashService{
		fileRepo:           fileRepo,
		folderRepo:         folderRepo,
		shareRepo:          shareRepo,
		evaluator:          evaluator,
		domainService:      domainService,
		transactionManager: transactionManager,
		storage:            storageService,
		cache:              cacheClient,
		search:             searchEngine,
		now:                time.Now,
	}
}

// TrashFile 已在回收站中时直接返回成功
func (s *trashService) TrashFile(ctx context.Context, actorID, fileID string) error {
	file, _, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionDelete)
	if err != nil {
		return err
	}
	if file.Trashed {
		return nil
	}

	if err := s.fileRepo.Updates(ctx, file.ID, map[string]any{"trashed": true, "trashed_at": s.now()}); err != nil {
		logger.Error("TrashFile: 移入回收站失败", zap.String("fileID", file.ID), zap.Error(err))
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	unindex(ctx, s.search, file.ID)
	invalidate(ctx, s.cache, cache.GenerateStorageUsageKey(file.UserID))

	logger.Info("TrashFile: 文件已移入回收站", zap.String("fileID", file.ID), zap.String("actorID", actorID))
	return nil
}

func (s *trashService) TrashFolder(ctx context.Context, actorID, folderID string) error {
	folder, err := s.evaluator.AuthorizeFolder(ctx, actorID, folderID, access.ActionDelete)
	if err != nil {
		return err
	}
	if folder.Trashed {
		return nil
	}

	if err := s.folderRepo.Updates(ctx, folder.ID, map[string]any{"trashed": true, "trashed_at": s.now()}); err != nil {
		logger.Error("TrashFolder: 移入回收站失败", zap.String("folderID", folder.ID), zap.Error(err))
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	logger.Info("TrashFolder: 文件夹已移入回收站", zap.String("folderID", folder.ID))
	return nil
}

// RestoreFile 不在回收站中时直接返回；原目录不可用时恢复到根目录
func (s *trashService) RestoreFile(ctx context.Context, actorID, fileID string) (*models.File, error) {
	file, _, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionRestore)
	if err != nil {
		return nil, err
	}
	if !file.Trashed {
		return file, nil
	}

	parentID, err := s.domainService.RestoreParent(ctx, file.UserID, file.FolderID)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{"trashed": false, "trashed_at": nil, "folder_id": parentID}
	if err := s.fileRepo.Updates(ctx, file.ID, fields); err != nil {
		logger.Error("RestoreFile: 恢复失败", zap.String("fileID", file.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	file.Trashed = false
	file.TrashedAt = nil
	file.FolderID = parentID

	reindex(ctx, s.search, file)
	invalidate(ctx, s.cache, cache.GenerateStorageUsageKey(file.UserID))
	return file, nil
}

func (s *trashService) RestoreFolder(ctx context.Context, actorID, folderID string) (*models.Folder, error) {
	folder, err := s.evaluator.AuthorizeFolder(ctx, actorID, folderID, access.ActionRestore)
	if err != nil {
		return nil, err
	}
	if !folder.Trashed {
		return folder, nil
	}

	parentID, err := s.domainService.RestoreParent(ctx, folder.UserID, folder.ParentID)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{"trashed": false, "trashed_at": nil, "parent_id": parentID}
	if err := s.folderRepo.Updates(ctx, folder.ID, fields); err != nil {
		logger.Error("RestoreFolder: 恢复失败", zap.String("folderID", folder.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	folder.Trashed = false
	folder.TrashedAt = nil
	folder.ParentID = parentID
	return folder, nil
}

// PurgeFile 只能彻底删除回收站中的文件
func (s *trashService) PurgeFile(ctx context.Context, actorID, fileID string) error {
	file, _, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionPurge)
	if err != nil {
		return err
	}
	if !file.Trashed {
		return xerr.ErrNotInTrash
	}
	return s.purgeFile(ctx, file)
}

func (s *trashService) PurgeFolder(ctx context.Context, actorID, folderID string) error {
	folder, err := s.evaluator.AuthorizeFolder(ctx, actorID, folderID, access.ActionPurge)
	if err != nil {
		return err
	}
	if !folder.Trashed {
		return xerr.ErrNotInTrash
	}
	return s.purgeFolder(ctx, folder)
}

// purgeFile 对象存储的删除失败只记录日志，数据库记录照常删除
func (s *trashService) purgeFile(ctx context.Context, file *models.File) error {
	if err := s.storage.RemoveObject(ctx, file.StorageKey); err != nil {
		logger.Warn("purgeFile: 删除存储对象失败，继续删除记录",
			zap.String("fileID", file.ID),
			zap.String("key", file.StorageKey),
			zap.Error(err))
	}

	err := s.transactionManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.shareRepo.DeleteByFile(tx, file.ID); err != nil {
			return err
		}
		return s.fileRepo.Delete(tx, file.ID)
	})
	if err != nil {
		logger.Error("purgeFile: 删除文件记录失败", zap.String("fileID", file.ID), zap.Error(err))
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	keys := []string{cache.GenerateStorageUsageKey(file.UserID)}
	if file.HasPublicToken() {
		keys = append(keys, cache.GeneratePublicTokenKey(*file.PublicShareToken))
	}
	invalidate(ctx, s.cache, keys...)
	unindex(ctx, s.search, file.ID)

	logger.Info("purgeFile: 文件已彻底删除", zap.String("fileID", file.ID))
	return nil
}

// purgeFolder 子文件和子文件夹挂到被删除文件夹的父目录下，不级联删除
func (s *trashService) purgeFolder(ctx context.Context, folder *models.Folder) error {
	err := s.transactionManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.folderRepo.Reparent(tx, folder.ID, folder.ParentID); err != nil {
			return err
		}
		if err := s.fileRepo.ReparentFolder(tx, folder.ID, folder.ParentID); err != nil {
			return err
		}
		return s.folderRepo.Delete(tx, folder.ID)
	})
	if err != nil {
		logger.Error("purgeFolder: 删除文件夹失败", zap.String("folderID", folder.ID), zap.Error(err))
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	logger.Info("purgeFolder: 文件夹已彻底删除", zap.String("folderID", folder.ID))
	return nil
}

func (s *trashService) EmptyTrash(ctx context.Context, actorID string) (*EmptyTrashResult, error) {
	listing, err := s.ListTrash(ctx, actorID)
	if err != nil {
		return nil, err
	}

	result := &EmptyTrashResult{}
	var errs []error
	fail := func(kind, id string, err error) {
		result.Failed++
		result.Failures = append(result.Failures, fmt.Sprintf("%s %s", kind, id))
		errs = append(errs, fmt.Errorf("%s %s: %w", kind, id, err))
	}

	for i := range listing.Files {
		if err := s.purgeFile(ctx, &listing.Files[i]); err != nil {
			fail("file", listing.Files[i].ID, err)
			continue
		}
		result.FilesPurged++
	}
	for i := range listing.Folders {
		// 前面的 purgeFolder 可能已经改过这个文件夹的父目录，重新读取
		folder, err := s.folderRepo.FindByID(ctx, listing.Folders[i].ID)
		if err != nil {
			fail("folder", listing.Folders[i].ID, err)
			continue
		}
		if folder == nil || !folder.Trashed {
			continue
		}
		if err := s.purgeFolder(ctx, folder); err != nil {
			fail("folder", folder.ID, err)
			continue
		}
		result.FoldersPurged++
	}

	result.Err = errors.Join(errs...)
	if result.Err != nil {
		logger.Warn("EmptyTrash: 部分项目删除失败",
			zap.String("userID", actorID),
			zap.Int("failed", result.Failed),
			zap.Error(result.Err))
	}
	logger.Info("EmptyTrash: 回收站已清空",
		zap.String("userID", actorID),
		zap.Int("files", result.FilesPurged),
		zap.Int("folders", result.FoldersPurged))
	return result, nil
}

func (s *trashService) ListTrash(ctx context.Context, actorID string) (*TrashListing, error) {
	files, err := s.fileRepo.ListTrashed(ctx, actorID)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	folders, err := s.folderRepo.ListTrashed(ctx, actorID)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return &TrashListing{Files: files, Folders: folders}, nil
}

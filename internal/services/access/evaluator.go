package access

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"go.uber.org/zap"
)

// Evaluator 查询实体后调用 EvaluateFile / EvaluateFolder，所有文件和文件夹操作都经过这里
type Evaluator interface {
	AuthorizeFile(ctx context.Context, actorID, fileID string, action Action) (*models.File, Grant, error)
	AuthorizeFolder(ctx context.Context, actorID, folderID string, action Action) (*models.Folder, error)
}

type evaluator struct {
	fileRepo   repositories.FileRepository
	folderRepo repositories.FolderRepository
	shareRepo  repositories.ShareRepository
	now        func() time.Time
}

var _ Evaluator = (*evaluator)(nil)

func NewEvaluator(
	fileRepo repositories.FileRepository,
	folderRepo repositories.FolderRepository,
	shareRepo repositories.ShareRepository,
) Evaluator {
	return &evaluator{
		fileRepo:   fileRepo,
		folderRepo: folderRepo,
		shareRepo:  shareRepo,
		now:        time.Now,
	}
}

func (e *evaluator) AuthorizeFile(ctx context.Context, actorID, fileID string, action Action) (*models.File, Grant, error) {
	file, err := e.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		logger.Error("AuthorizeFile: 查询文件失败", zap.String("fileID", fileID), zap.Error(err))
		return nil, Grant{}, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if file == nil {
		return nil, Grant{}, xerr.ErrFileNotFound
	}

	var share *models.Share
	if file.UserID != actorID {
		share, err = e.shareRepo.FindByFileAndRecipient(ctx, fileID, actorID)
		if err != nil {
			logger.Error("AuthorizeFile: 查询分享记录失败", zap.String("fileID", fileID), zap.String("actorID", actorID), zap.Error(err))
			return nil, Grant{}, xerr.Wrap(xerr.ErrDatabaseError, err)
		}
	}

	grant, err := EvaluateFile(actorID, file, share, action, e.now())
	if err != nil {
		logger.Warn("AuthorizeFile: 拒绝访问",
			zap.String("actorID", actorID),
			zap.String("fileID", fileID),
			zap.String("action", string(action)),
			zap.Error(err))
		return nil, Grant{}, fmt.Errorf("%s file: %w", action, err)
	}
	return file, grant, nil
}

func (e *evaluator) AuthorizeFolder(ctx context.Context, actorID, folderID string, action Action) (*models.Folder, error) {
	folder, err := e.folderRepo.FindByID(ctx, folderID)
	if err != nil {
		logger.Error("AuthorizeFolder: 查询文件夹失败", zap.String("folderID", folderID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	if _, err := EvaluateFolder(actorID, folder, action); err != nil {
		logger.Warn("AuthorizeFolder: 拒绝访问",
			zap.String("actorID", actorID),
			zap.String("folderID", folderID),
			zap.String("action", string(action)),
			zap.Error(err))
		return nil, fmt.Errorf("%s folder: %w", action, err)
	}
	return folder, nil
}

package share

import (
	"context"
	"errors"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/services/access"
	"github.com/3Eeeecho/go-cloudbox/internal/services/explorer"
	"github.com/3Eeeecho/go-cloudbox/internal/services/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResultKind 分享结果的类型
type ResultKind string

const (
	// KindInternal 收件人已注册，创建或更新了分享记录
	KindInternal ResultKind = "internal"
	// KindExternal 收件人未注册，只通过公开链接访问
	KindExternal ResultKind = "external"
)

// ShareResult 内部分享带 Share，外部分享只有 Token 和 Email
type ShareResult struct {
	Kind  ResultKind    `json:"kind"`
	Share *models.Share `json:"share,omitempty"`
	Token string        `json:"token"`
	Email string        `json:"email"`
}

func (r *ShareResult) External() bool {
	return r.Kind == KindExternal
}

type ShareRequest struct {
	FileID     string
	Email      string
	Permission models.Permission
	ExpiresAt  *time.Time // 为空表示永不过期
}

// ShareService 定义了文件分享服务需要实现的接口
type ShareService interface {
	// ShareFile 把文件分享给邮箱对应的用户，重复分享只更新权限
	ShareFile(ctx context.Context, actorID string, req ShareRequest) (*ShareResult, error)
	// RevokeShare 分享者或接收者都可以撤销
	RevokeShare(ctx context.Context, actorID, shareID string) error
	// UpdatePermission 只有分享者可以修改
	UpdatePermission(ctx context.Context, actorID, shareID string, permission models.Permission) (*models.Share, error)
	ListSharedWithMe(ctx context.Context, actorID string) ([]models.Share, error)
	ListSharedByMe(ctx context.Context, actorID string) ([]models.Share, error)
	// ListFileShares 只有文件所有者可以查看
	ListFileShares(ctx context.Context, actorID, fileID string) ([]models.Share, error)
}

// shareService 是 ShareService 接口的具体实现
type shareService struct {
	shareRepo   repositories.ShareRepository
	userRepo    repositories.UserRepository
	evaluator   access.Evaluator
	publicLinks explorer.PublicLinkService
	notifier    notify.Notifier
	now         func() time.Time
}

var _ ShareService = (*shareService)(nil)

// NewShareService 创建一个新的 ShareService 实例
func NewShareService(
	shareRepo repositories.ShareRepository,
	userRepo repositories.UserRepository,
	evaluator access.Evaluator,
	publicLinks explorer.PublicLinkService,
	notifier notify.Notifier,
) ShareService {
	return &shareService{
		shareRepo:   shareRepo,
		userRepo:    userRepo,
		evaluator:   evaluator,
		publicLinks: publicLinks,
		notifier:    notifier,
		now:         time.Now,
	}
}

// ShareFile 处理分享文件的业务逻辑
func (s *shareService) ShareFile(ctx context.Context, actorID string, req ShareRequest) (*ShareResult, error) {
	if !req.Permission.Valid() {
		return nil, xerr.ErrInvalidPermission
	}
	email := repositories.NormalizeEmail(req.Email)
	if email == "" {
		return nil, xerr.ErrInvalidParams
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, xerr.ErrInvalidParams
	}

	// 1. 只有所有者可以分享，且文件不在回收站中
	file, _, err := s.evaluator.AuthorizeFile(ctx, actorID, req.FileID, access.ActionShare)
	if err != nil {
		return nil, err
	}

	sharer, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if sharer == nil {
		return nil, xerr.ErrUserNotFound
	}
	recipient, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if recipient != nil && recipient.ID == actorID {
		return nil, xerr.ErrCannotShareWithSelf
	}

	// 2. 不论收件人是否注册都保证文件有公开 token，邮件里可以直接带上链接
	token, err := s.publicLinks.EnsureToken(ctx, file)
	if err != nil {
		return nil, err
	}

	// 3. 未注册的邮箱不创建分享记录
	if recipient == nil {
		s.notifier.SendExternalShareNotification(ctx, email, sharer, file, token)
		logger.Info("ShareFile: 外部分享",
			zap.String("fileID", file.ID),
			zap.String("email", email))
		return &ShareResult{Kind: KindExternal, Token: token, Email: email}, nil
	}

	// 4. 已存在分享时原地更新权限，不再发送通知
	existing, err := s.shareRepo.FindByFileAndRecipient(ctx, file.ID, recipient.ID)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if existing != nil {
		return s.reshare(ctx, existing, req, token, email)
	}

	// 5. 创建分享；并发创建时唯一索引冲突，退化为更新
	share := &models.Share{
		FileID:       file.ID,
		SharedByID:   actorID,
		SharedWithID: recipient.ID,
		Permission:   req.Permission,
		ExpiresAt:    req.ExpiresAt,
	}
	if err := s.shareRepo.Create(ctx, share); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Error("ShareFile: 创建分享记录失败", zap.String("fileID", file.ID), zap.Error(err))
			return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
		}
		existing, err := s.shareRepo.FindByFileAndRecipient(ctx, file.ID, recipient.ID)
		if err != nil {
			return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
		}
		if existing == nil {
			return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
		}
		return s.reshare(ctx, existing, req, token, email)
	}

	// 只有插入成功的一方发送通知
	s.notifier.SendShareNotification(ctx, recipient, sharer, file, req.Permission, token)

	logger.Info("ShareFile: 分享创建成功",
		zap.String("shareID", share.ID),
		zap.String("fileID", file.ID),
		zap.String("recipientID", recipient.ID),
		zap.String("permission", string(share.Permission)))
	return &ShareResult{Kind: KindInternal, Share: share, Token: token, Email: email}, nil
}

func (s *shareService) reshare(ctx context.Context, existing *models.Share, req ShareRequest, token, email string) (*ShareResult, error) {
	fields := map[string]any{"permission": req.Permission}
	if req.ExpiresAt != nil {
		fields["expires_at"] = req.ExpiresAt
	}
	if err := s.shareRepo.Updates(ctx, existing.ID, fields); err != nil {
		logger.Error("ShareFile: 更新分享权限失败", zap.String("shareID", existing.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	existing.Permission = req.Permission
	if req.ExpiresAt != nil {
		existing.ExpiresAt = req.ExpiresAt
	}

	logger.Info("ShareFile: 已存在分享，更新权限",
		zap.String("shareID", existing.ID),
		zap.String("permission", string(req.Permission)))
	return &ShareResult{Kind: KindInternal, Share: existing, Token: token, Email: email}, nil
}

// RevokeShare 撤销一个分享
func (s *shareService) RevokeShare(ctx context.Context, actorID, shareID string) error {
	share, err := s.findShare(ctx, shareID)
	if err != nil {
		return err
	}
	if share.SharedByID != actorID && share.SharedWithID != actorID {
		logger.Warn("RevokeShare: 无权撤销分享",
			zap.String("shareID", shareID),
			zap.String("actorID", actorID))
		return xerr.ErrPermissionDenied
	}

	if err := s.shareRepo.Delete(ctx, share.ID); err != nil {
		logger.Error("RevokeShare: 删除分享记录失败", zap.String("shareID", shareID), zap.Error(err))
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	logger.Info("RevokeShare: 分享已撤销", zap.String("shareID", shareID), zap.String("actorID", actorID))
	return nil
}

func (s *shareService) UpdatePermission(ctx context.Context, actorID, shareID string, permission models.Permission) (*models.Share, error) {
	if !permission.Valid() {
		return nil, xerr.ErrInvalidPermission
	}
	share, err := s.findShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.SharedByID != actorID {
		return nil, xerr.ErrPermissionDenied
	}
	if share.Permission == permission {
		return share, nil
	}

	if err := s.shareRepo.Updates(ctx, share.ID, map[string]any{"permission": permission}); err != nil {
		logger.Error("UpdatePermission: 更新失败", zap.String("shareID", shareID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	share.Permission = permission
	return share, nil
}

func (s *shareService) ListSharedWithMe(ctx context.Context, actorID string) ([]models.Share, error) {
	shares, err := s.shareRepo.ListSharedWith(ctx, actorID, s.now())
	if err != nil {
		logger.Error("ListSharedWithMe: 查询失败", zap.String("userID", actorID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return shares, nil
}

func (s *shareService) ListSharedByMe(ctx context.Context, actorID string) ([]models.Share, error) {
	shares, err := s.shareRepo.ListSharedBy(ctx, actorID)
	if err != nil {
		logger.Error("ListSharedByMe: 查询失败", zap.String("userID", actorID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return shares, nil
}

func (s *shareService) ListFileShares(ctx context.Context, actorID, fileID string) ([]models.Share, error) {
	_, grant, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionView)
	if err != nil {
		return nil, err
	}
	if !grant.Owner {
		return nil, xerr.ErrPermissionDenied
	}
	shares, err := s.shareRepo.ListByFile(ctx, fileID)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return shares, nil
}

func (s *shareService) findShare(ctx context.Context, shareID string) (*models.Share, error) {
	share, err := s.shareRepo.FindByID(ctx, shareID)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if share == nil {
		return nil, xerr.ErrShareNotFound
	}
	return share, nil
}

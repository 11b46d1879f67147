package notify

import (
	"context"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"go.uber.org/zap"
)

const defaultListLimit = 50

type NotificationService interface {
	List(ctx context.Context, userID string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	// MarkRead 只有通知的接收者可以标记
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

var _ NotificationService = (*notificationService)(nil)

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	list, err := s.notificationRepo.ListByUser(ctx, userID, defaultListLimit)
	if err != nil {
		logger.Error("List notifications: 查询失败", zap.String("userID", userID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return list, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		logger.Error("UnreadCount: 查询失败", zap.String("userID", userID), zap.Error(err))
		return 0, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if n == nil {
		return xerr.ErrNotificationNotFound
	}
	if n.UserID != userID {
		logger.Warn("MarkRead: 非接收者尝试标记通知",
			zap.String("userID", userID),
			zap.String("notificationID", notificationID))
		return xerr.ErrPermissionDenied
	}
	if n.Read {
		return nil
	}
	if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		logger.Error("MarkRead: 更新失败", zap.String("notificationID", notificationID), zap.Error(err))
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		logger.Error("MarkAllRead: 更新失败", zap.String("userID", userID), zap.Error(err))
		return 0, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return count, nil
}

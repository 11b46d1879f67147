package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/mailer"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"go.uber.org/zap"
)

const (
	ShareNotificationTitle = "New file shared"
	SharedActionLink       = "/shared"
)

// Notifier 分享和注册相关的通知。失败只记录日志，不影响调用方
type Notifier interface {
	SendShareNotification(ctx context.Context, recipient, sharer *models.User, file *models.File, permission models.Permission, token string)
	SendExternalShareNotification(ctx context.Context, email string, sharer *models.User, file *models.File, token string)
	SendWelcome(ctx context.Context, user *models.User)
}

type notifier struct {
	notificationRepo repositories.NotificationRepository
	sender           mailer.Sender
	frontendURL      string
}

var _ Notifier = (*notifier)(nil)

func NewNotifier(notificationRepo repositories.NotificationRepository, sender mailer.Sender, cfg *config.Config) Notifier {
	return &notifier{
		notificationRepo: notificationRepo,
		sender:           sender,
		frontendURL:      strings.TrimRight(cfg.Server.FrontendURL, "/"),
	}
}

// PublicLink 公开访问页面地址
func PublicLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/public-view/%s", strings.TrimRight(frontendURL, "/"), token)
}

// ShareMessage 站内通知正文
func ShareMessage(sharer *models.User, file *models.File) string {
	return fmt.Sprintf("%s shared %q with you.", sharer.DisplayName(), file.Name)
}

func (n *notifier) SendShareNotification(ctx context.Context, recipient, sharer *models.User, file *models.File, permission models.Permission, token string) {
	notification := &models.Notification{
		UserID:     recipient.ID,
		Title:      ShareNotificationTitle,
		Message:    ShareMessage(sharer, file),
		Type:       models.NotificationTypeShare,
		ActionLink: SharedActionLink,
	}
	if err := n.notificationRepo.Create(ctx, notification); err != nil {
		logger.Error("SendShareNotification: 写入站内通知失败",
			zap.String("recipientID", recipient.ID),
			zap.String("fileID", file.ID),
			zap.Error(err))
	}

	body, err := render(shareTmpl, shareView{
		Recipient:  recipient.DisplayName(),
		Sharer:     sharer.DisplayName(),
		FileName:   file.Name,
		Permission: string(permission),
		Link:       PublicLink(n.frontendURL, token),
	})
	if err != nil {
		logger.Error("SendShareNotification: 渲染邮件失败", zap.Error(err))
		return
	}
	n.send(ctx, mailer.Message{
		To:       recipient.Email,
		Subject:  fmt.Sprintf("%s shared a file with you", sharer.DisplayName()),
		HTMLBody: body,
		Tag:      "share",
	})
}

func (n *notifier) SendExternalShareNotification(ctx context.Context, email string, sharer *models.User, file *models.File, token string) {
	body, err := render(externalShareTmpl, shareView{
		Sharer:   sharer.DisplayName(),
		FileName: file.Name,
		Link:     PublicLink(n.frontendURL, token),
	})
	if err != nil {
		logger.Error("SendExternalShareNotification: 渲染邮件失败", zap.Error(err))
		return
	}
	n.send(ctx, mailer.Message{
		To:       email,
		Subject:  fmt.Sprintf("%s shared a file with you", sharer.DisplayName()),
		HTMLBody: body,
		Tag:      "external-share",
	})
}

func (n *notifier) SendWelcome(ctx context.Context, user *models.User) {
	body, err := render(welcomeTmpl, welcomeView{Name: user.DisplayName(), Link: n.frontendURL})
	if err != nil {
		logger.Error("SendWelcome: 渲染邮件失败", zap.Error(err))
		return
	}
	n.send(ctx, mailer.Message{
		To:       user.Email,
		Subject:  "Welcome to go-cloudbox",
		HTMLBody: body,
		Tag:      "welcome",
	})
}

func (n *notifier) send(ctx context.Context, msg mailer.Message) {
	if err := n.sender.Send(ctx, msg); err != nil {
		logger.Warn("邮件发送失败",
			zap.String("to", msg.To),
			zap.String("tag", msg.Tag),
			zap.Error(err))
	}
}

package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
)

var (
	ErrInvalidConfig = errors.New("邮件配置无效")
	ErrInvalidParams = errors.New("邮件参数无效")
	ErrSendFailed    = errors.New("邮件发送失败")
)

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message 一封待发送的邮件
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	Tag      string // 用于统计，例如 "share", "external-share", "welcome"
}

func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: 收件人地址 %q 无效", ErrInvalidParams, m.To)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: 主题不能为空", ErrInvalidParams)
	}
	if strings.TrimSpace(m.HTMLBody) == "" {
		return fmt.Errorf("%w: 正文不能为空", ErrInvalidParams)
	}
	return nil
}

// NewSender 根据 mail.driver 选择发送实现
func NewSender(cfg *config.MailConfig) (Sender, error) {
	switch cfg.Driver {
	case "postmark":
		return NewPostmarkSender(cfg)
	case "log", "":
		return NewLogSender(cfg.LogDir), nil
	default:
		return nil, fmt.Errorf("%w: 未知的邮件驱动 %q", ErrInvalidConfig, cfg.Driver)
	}
}

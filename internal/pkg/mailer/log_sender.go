package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"go.uber.org/zap"
)

// LogSender 开发环境使用：邮件正文写入目录，同时打印一条日志
type LogSender struct {
	dir string
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(dir string) *LogSender {
	return &LogSender{dir: dir}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	logger.Info("邮件已记录（未实际发送）",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("tag", msg.Tag))

	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: 创建目录失败: %v", ErrSendFailed, err)
	}

	name := fmt.Sprintf("%s_%s.html", time.Now().Format("2006_01_02_150405.000"), fileSafe(msg.Tag+"_"+msg.To))
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(msg.HTMLBody), 0o644); err != nil {
		return fmt.Errorf("%w: 写入邮件文件失败: %v", ErrSendFailed, err)
	}
	return nil
}

func fileSafe(s string) string {
	s = unsafeChars.ReplaceAllString(strings.ReplaceAll(s, "@", "_at_"), "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}

package admin

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/utils"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/services/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// AuthResult 注册和登录都直接返回 token
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type authService struct {
	userRepo repositories.UserRepository
	notifier notify.Notifier
	cfg      *config.Config
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(userRepo repositories.UserRepository, notifier notify.Notifier, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (s *authService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = repositories.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, xerr.ErrInvalidParams
	}
	if len(password) < minPasswordLength {
		return nil, xerr.ErrInvalidParams
	}

	// 检查邮箱是否存在
	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if existingUser != nil {
		return nil, xerr.ErrEmailAlreadyExists
	}

	// 哈希密码
	hashedPassword, err := utils.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, xerr.ErrInvalidParams
	}
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrServerInternal, err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         strings.TrimSpace(name),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 并发注册同一个邮箱时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xerr.ErrEmailAlreadyExists
		}
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	s.notifier.SendWelcome(ctx, user)
	logger.Info("User registered successfully", zap.String("userID", user.ID), zap.String("email", user.Email))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	// 用户不存在和密码错误返回同一个错误
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("Login: 登录失败", zap.String("email", repositories.NormalizeEmail(email)))
		return nil, xerr.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	// 调用 utils 包中的 GenerateToken 函数来生成 JWT Token
	token, err := utils.GenerateToken(user.ID, user.Email, s.cfg.JWT.SecretKey, s.cfg.JWT.Issuer, s.cfg.JWT.ExpiresIn)
	if err != nil {
		logger.Error("生成 token 失败", zap.String("userID", user.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrServerInternal, err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

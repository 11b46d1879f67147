package explorer

import (
	"context"
	"errors"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/services/access"
	"github.com/3Eeeecho/go-cloudbox/internal/services/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publicTokenTTL = 10 * time.Minute

// PublicLinkService 公开链接：token 是免登录访问单个文件的唯一凭证
type PublicLinkService interface {
	// EnsureToken 文件没有 token 时生成一个，并发调用得到同一个 token
	EnsureToken(ctx context.Context, file *models.File) (string, error)
	GeneratePublicLink(ctx context.Context, actorID, fileID string) (*PublicLink, error)
	RevokePublicLink(ctx context.Context, actorID, fileID string) error
	Resolve(ctx context.Context, token string) (*models.File, error)
	PublicFile(ctx context.Context, token string) (*models.File, error)
	PublicDownload(ctx context.Context, token string) (*DownloadResult, error)
}

type PublicLink struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type publicLinkService struct {
	fileRepo  repositories.FileRepository
	evaluator access.Evaluator
	storage   storage.StorageService
	cache     cache.Cache
	cfg       *config.Config
	now       func() time.Time
}

var _ PublicLinkService = (*publicLinkService)(nil)

func NewPublicLinkService(
	fileRepo repositories.FileRepository,
	evaluator access.Evaluator,
	storageService storage.StorageService,
	cacheClient cache.Cache,
	cfg *config.Config,
) PublicLinkService {
	return &publicLinkService{
		fileRepo:  fileRepo,
		evaluator: evaluator,
		storage:   storageService,
		cache:     cacheClient,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *publicLinkService) EnsureToken(ctx context.Context, file *models.File) (string, error) {
	if file.HasPublicToken() {
		return *file.PublicShareToken, nil
	}
	token, err := s.fileRepo.EnsurePublicToken(ctx, file.ID, uuid.New().String())
	if err != nil {
		logger.Error("EnsureToken: 生成公开 token 失败", zap.String("fileID", file.ID), zap.Error(err))
		return "", xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	file.PublicShareToken = &token
	return token, nil
}

func (s *publicLinkService) GeneratePublicLink(ctx context.Context, actorID, fileID string) (*PublicLink, error) {
	file, _, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionShare)
	if err != nil {
		return nil, err
	}
	token, err := s.EnsureToken(ctx, file)
	if err != nil {
		return nil, err
	}
	return &PublicLink{Token: token, URL: notify.PublicLink(s.cfg.Server.FrontendURL, token)}, nil
}

// RevokePublicLink 清空 token 后所有已发出的链接立即失效；回收站中的文件也可以撤销
func (s *publicLinkService) RevokePublicLink(ctx context.Context, actorID, fileID string) error {
	file, grant, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionView)
	if err != nil {
		return err
	}
	if !grant.Owner {
		return xerr.ErrPermissionDenied
	}
	if !file.HasPublicToken() {
		return nil
	}

	if err := s.fileRepo.ClearPublicToken(ctx, file.ID); err != nil {
		logger.Error("RevokePublicLink: 清除 token 失败", zap.String("fileID", file.ID), zap.Error(err))
		return xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	invalidate(ctx, s.cache, cache.GeneratePublicTokenKey(*file.PublicShareToken))

	logger.Info("RevokePublicLink: 公开链接已撤销", zap.String("fileID", file.ID))
	return nil
}

// Resolve 缓存 token -> 文件 ID，命中后仍回表确认 token 没有被撤销
func (s *publicLinkService) Resolve(ctx context.Context, token string) (*models.File, error) {
	if token == "" {
		return nil, xerr.ErrPublicLinkNotFound
	}
	key := cache.GeneratePublicTokenKey(token)

	var fileID string
	err := s.cache.Get(ctx, key, &fileID)
	if err == nil {
		file, err := s.fileRepo.FindByID(ctx, fileID)
		if err != nil {
			return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
		}
		if file != nil && file.HasPublicToken() && *file.PublicShareToken == token {
			return file, nil
		}
		invalidate(ctx, s.cache, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("Resolve: 读取缓存失败", zap.Error(err))
	}

	file, err := s.fileRepo.FindByPublicToken(ctx, token)
	if err != nil {
		logger.Error("Resolve: 查询公开 token 失败", zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if file == nil {
		return nil, xerr.ErrPublicLinkNotFound
	}
	if err := s.cache.Set(ctx, key, file.ID, publicTokenTTL); err != nil {
		logger.Warn("Resolve: 写入缓存失败", zap.String("fileID", file.ID), zap.Error(err))
	}
	return file, nil
}

func (s *publicLinkService) PublicFile(ctx context.Context, token string) (*models.File, error) {
	file, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := access.EvaluateAnonymous(file, token, access.ActionView); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *publicLinkService) PublicDownload(ctx context.Context, token string) (*DownloadResult, error) {
	file, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := access.EvaluateAnonymous(file, token, access.ActionDownload); err != nil {
		return nil, err
	}

	ttl := s.cfg.Storage.PresignedURLExpiry
	url, err := s.storage.PresignGetObject(ctx, file.StorageKey, ttl, file.Name)
	if err != nil {
		logger.Error("PublicDownload: 生成签名下载地址失败", zap.String("fileID", file.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrStorageError, err)
	}
	return &DownloadResult{File: file, URL: url, ExpiresAt: s.now().Add(ttl)}, nil
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/handlers"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/mailer"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/search"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/router"
	"github.com/3Eeeecho/go-cloudbox/internal/services/access"
	"github.com/3Eeeecho/go-cloudbox/internal/services/admin"
	"github.com/3Eeeecho/go-cloudbox/internal/services/explorer"
	"github.com/3Eeeecho/go-cloudbox/internal/services/notify"
	"github.com/3Eeeecho/go-cloudbox/internal/services/share"
	"github.com/3Eeeecho/go-cloudbox/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router          *gin.Engine
	httpServer      *http.Server
	db              *gorm.DB
	redisClient     *redis.Client
	shutdownTimeout time.Duration
}

// Deps 构建 handler 需要的外部依赖，测试中可以替换为内存实现
type Deps struct {
	DB      *gorm.DB
	Cache   cache.Cache
	Storage storage.StorageService
	Search  search.Engine // 为空时使用数据库搜索
	Sender  mailer.Sender
	Config  *config.Config
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	// 初始化数据库连接
	db, err := setup.InitDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 初始化 Redis 连接，未启用时缓存退化为空实现
	redisClient, cacheClient, err := setup.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	ss, err := setup.InitStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 初始化Elasticsearch
	searchEngine, err := setup.InitSearch(&cfg.Elasticsearch, repositories.NewFileRepository(db))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search: %w", err)
	}

	sender, err := mailer.NewSender(&cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	engine := router.InitRouter(BuildHandlers(Deps{
		DB:      db,
		Cache:   cacheClient,
		Storage: ss,
		Search:  searchEngine,
		Sender:  sender,
		Config:  cfg,
	}), cfg)

	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           gzhttp.GzipHandler(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &Server{
		router:          engine,
		httpServer:      httpServer,
		db:              db,
		redisClient:     redisClient,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// BuildHandlers 初始化 Repositories、Services 和 Handlers
func BuildHandlers(d Deps) *router.Handlers {
	cfg := d.Config

	//  初始化 Repositories
	userRepo := repositories.NewUserRepository(d.DB)
	fileRepo := repositories.NewFileRepository(d.DB)
	folderRepo := repositories.NewFolderRepository(d.DB)
	shareRepo := repositories.NewShareRepository(d.DB)
	notificationRepo := repositories.NewNotificationRepository(d.DB)

	searchEngine := d.Search
	if searchEngine == nil {
		searchEngine = search.NewDBEngine(fileRepo)
	}

	//  初始化 Services
	tm := explorer.NewTransactionManager(d.DB)
	evaluator := access.NewEvaluator(fileRepo, folderRepo, shareRepo)
	domainService := explorer.NewFolderDomainService(folderRepo)
	notifier := notify.NewNotifier(notificationRepo, d.Sender, cfg)

	fileService := explorer.NewFileService(fileRepo, folderRepo, shareRepo, evaluator, domainService, d.Storage, d.Cache, searchEngine, cfg)
	folderService := explorer.NewFolderService(folderRepo, evaluator, domainService)
	trashService := explorer.NewTrashService(fileRepo, folderRepo, shareRepo, evaluator, domainService, tm, d.Storage, d.Cache, searchEngine)
	publicLinks := explorer.NewPublicLinkService(fileRepo, evaluator, d.Storage, d.Cache, cfg)
	shareService := share.NewShareService(shareRepo, userRepo, evaluator, publicLinks, notifier)
	authService := admin.NewAuthService(userRepo, notifier, cfg)
	userService := admin.NewUserService(userRepo)
	notificationService := notify.NewNotificationService(notificationRepo)

	//  初始化 Handlers
	h := &router.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		User:         handlers.NewUserHandler(userService),
		File:         handlers.NewFileHandler(fileService, trashService, publicLinks, shareService),
		Folder:       handlers.NewFolderHandler(folderService, trashService),
		Share:        handlers.NewShareHandler(shareService),
		Trash:        handlers.NewTrashHandler(trashService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Public:       handlers.NewPublicHandler(publicLinks),
	}
	if local, ok := d.Storage.(*storage.LocalStorageService); ok {
		h.Blob = handlers.NewBlobHandler(local, cfg.Storage.MaxUploadSize)
	}
	return h
}

// Run 启动服务器，并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	// 确保在应用关闭时，所有连接都被释放
	defer setup.CloseDatabase(s.db)
	defer setup.CloseRedis(s.redisClient)

	// 启动 HTTP 服务器
	go func() {
		logger.Info("Server is running", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	select {
	case <-stopChan:
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("Server exited gracefully")
}

package router

import (
	"net/http"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/handlers"
	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/middlewares"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// Handlers 包含注册路由所需的全部 handler
// Blob 只有使用本地存储时才需要，其他后端直接返回对象存储的签名地址
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	File         *handlers.FileHandler
	Folder       *handlers.FolderHandler
	Share        *handlers.ShareHandler
	Trash        *handlers.TrashHandler
	Notification *handlers.NotificationHandler
	Public       *handlers.PublicHandler
	Blob         *handlers.BlobHandler
}

func InitRouter(h *Handlers, cfg *config.Config) *gin.Engine {
	// 设置 Gin 模式，开发环境为 DebugMode，生产环境为 ReleaseMode
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	router := gin.New()
	router.Use(middlewares.RequestLogger(), gin.Recovery())

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
		}

		// 公开链接 (无需认证)
		publicGroup := v1.Group("/public")
		{
			publicGroup.GET("/:token", h.Public.GetFile)
			publicGroup.GET("/:token/download", h.Public.Download)
		}
		if h.Blob != nil {
			v1.GET("/blobs/*key", h.Blob.Serve)
			v1.PUT("/blobs/*key", h.Blob.Upload)
		}

		// 需要认证的路由组
		authenticated := v1.Group("")
		authenticated.Use(middlewares.AuthMiddleware(&cfg.JWT))

		// 用户相关路由
		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/me", h.User.GetUserProfile)
		}

		// 文件相关路由
		fileGroup := authenticated.Group("/files")
		{
			fileGroup.POST("/upload", h.File.UploadFile)
			fileGroup.POST("/init-upload", h.File.InitUpload)
			fileGroup.POST("/complete-upload", h.File.CompleteUpload)
			fileGroup.GET("", h.File.ListFiles)
			fileGroup.GET("/search", h.File.Search)
			fileGroup.GET("/recent", h.File.Recent)
			fileGroup.GET("/starred", h.File.Starred)
			fileGroup.GET("/storage", h.File.StorageUsage)
			fileGroup.GET("/:id", h.File.GetFile)
			fileGroup.GET("/:id/download", h.File.DownloadFile)
			fileGroup.PUT("/:id/rename", h.File.RenameFile)
			fileGroup.PUT("/:id/move", h.File.MoveFile)
			fileGroup.POST("/:id/star", h.File.ToggleStar)
			fileGroup.DELETE("/:id", h.File.TrashFile)
			fileGroup.POST("/:id/restore", h.File.RestoreFile)
			fileGroup.DELETE("/:id/permanent", h.File.PurgeFile)
			fileGroup.POST("/:id/public-link", h.File.GeneratePublicLink)
			fileGroup.DELETE("/:id/public-link", h.File.RevokePublicLink)
			fileGroup.GET("/:id/shares", h.File.ListFileShares)
		}

		// 文件夹相关路由
		folderGroup := authenticated.Group("/folders")
		{
			folderGroup.POST("", h.Folder.CreateFolder)
			folderGroup.GET("", h.Folder.ListFolders)
			folderGroup.GET("/:id", h.Folder.GetFolder)
			folderGroup.PUT("/:id/rename", h.Folder.RenameFolder)
			folderGroup.PUT("/:id/move", h.Folder.MoveFolder)
			folderGroup.DELETE("/:id", h.Folder.TrashFolder)
			folderGroup.POST("/:id/restore", h.Folder.RestoreFolder)
			folderGroup.DELETE("/:id/permanent", h.Folder.PurgeFolder)
		}

		// 分享相关路由
		shareGroup := authenticated.Group("/shares")
		{
			shareGroup.POST("", h.Share.CreateShare)
			shareGroup.GET("/with-me", h.Share.ListSharedWithMe)
			shareGroup.GET("/by-me", h.Share.ListSharedByMe)
			shareGroup.PUT("/:id", h.Share.UpdatePermission)
			shareGroup.DELETE("/:id", h.Share.RevokeShare)
		}

		trashGroup := authenticated.Group("/trash")
		{
			trashGroup.GET("", h.Trash.ListTrash)
			trashGroup.DELETE("", h.Trash.EmptyTrash)
		}

		notificationGroup := authenticated.Group("/notifications")
		{
			notificationGroup.GET("", h.Notification.List)
			notificationGroup.GET("/unread-count", h.Notification.UnreadCount)
			notificationGroup.PUT("/read-all", h.Notification.MarkAllRead)
			notificationGroup.PUT("/:id/read", h.Notification.MarkRead)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}

package explorer

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/search"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/services/access"
	"go.uber.org/zap"
)

const (
	recentLimit      = 20
	searchLimit      = 50
	storageUsageTTL  = time.Minute
	defaultMimeType  = "application/octet-stream"
	sniffHeaderBytes = 3072
)

type FileService interface {
	// 文件上传
	Upload(ctx context.Context, actorID string, req UploadRequest) (*models.File, error)
	// 客户端直传：先申请上传地址，上传到存储后再登记
	InitUpload(ctx context.Context, actorID string, req InitUploadRequest) (*UploadTicket, error)
	CompleteUpload(ctx context.Context, actorID string, req CompleteUploadRequest) (*models.File, error)

	// 文件查询
	GetFile(ctx context.Context, actorID, fileID string) (*FileEntry, error)
	ListFiles(ctx context.Context, actorID string, folderID *string) (*Listing, error)
	Search(ctx context.Context, actorID, query string) ([]models.File, error)
	Recent(ctx context.Context, actorID string) ([]FileEntry, error)
	Starred(ctx context.Context, actorID string) ([]FileEntry, error)
	StorageUsage(ctx context.Context, actorID string) (*StorageUsage, error)

	// 文件下载
	Download(ctx context.Context, actorID, fileID string) (*DownloadResult, error)

	// 文件操作
	Rename(ctx context.Context, actorID, fileID, newName string) (*models.File, error)
	Move(ctx context.Context, actorID, fileID string, targetFolderID *string) (*models.File, error)
	ToggleStar(ctx context.Context, actorID, fileID string) (bool, error)
}

// UploadRequest 单次上传的参数
type UploadRequest struct {
	FolderID *string
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

// FileEntry 列表中的文件，带上当前用户视角下的分享信息
type FileEntry struct {
	models.File
	Shared     bool              `json:"shared"`
	ShareID    string            `json:"share_id,omitempty"`
	Permission models.Permission `json:"permission"`
	SharedBy   *models.User      `json:"shared_by,omitempty"`
	Starred    bool              `json:"starred"` // 对分享接收者来说是分享记录上的星标
	ActivityAt time.Time         `json:"activity_at"`
}

// Listing 某个目录下的直接子项
type Listing struct {
	Folder  *models.Folder  `json:"folder,omitempty"` // 根目录为空
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

type DownloadResult struct {
	File      *models.File `json:"file"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type StorageUsage struct {
	UsedBytes  int64   `json:"used_bytes"`
	QuotaBytes int64   `json:"quota_bytes"`
	Percentage float64 `json:"percentage"`
	Used       string  `json:"used"`
	Quota      string  `json:"quota"`
}

type fileService struct {
	fileRepo      repositories.FileRepository
	folderRepo    repositories.FolderRepository
	shareRepo     repositories.ShareRepository
	evaluator     access.Evaluator
	domainService FolderDomainService
	storage       storage.StorageService
	cache         cache.Cache
	search        search.Engine
	cfg           *config.Config
	now           func() time.Time
}

var _ FileService = (*fileService)(nil)

// NewFileService 创建一个新的文件服务实例
func NewFileService(
	fileRepo repositories.FileRepository,
	folderRepo repositories.FolderRepository,
	shareRepo repositories.ShareRepository,
	evaluator access.Evaluator,
	domainService FolderDomainService,
	storageService storage.StorageService,
	cacheClient cache.Cache,
	searchEngine search.Engine,
	cfg *config.Config,
) FileService {
	return &fileService{
		fileRepo:      fileRepo,
		folderRepo:    folderRepo,
		shareRepo:     shareRepo,
		evaluator:     evaluator,
		domainService: domainService,
		storage:       storageService,
		cache:         cacheClient,
		search:        searchEngine,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *fileService) GetFile(ctx context.Context, actorID, fileID string) (*FileEntry, error) {
	file, grant, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionView)
	if err != nil {
		return nil, err
	}
	entry := newFileEntry(file, grant)
	return &entry, nil
}

// ListFiles 列出目录下未删除的文件夹和文件，folderID 为 nil 表示根目录
func (s *fileService) ListFiles(ctx context.Context, actorID string, folderID *string) (*Listing, error) {
	listing := &Listing{}
	if folderID != nil {
		folder, err := s.evaluator.AuthorizeFolder(ctx, actorID, *folderID, access.ActionView)
		if err != nil {
			return nil, err
		}
		listing.Folder = folder
	}

	folders, err := s.folderRepo.ListByParent(ctx, actorID, folderID)
	if err != nil {
		logger.Error("ListFiles: 查询子目录失败", zap.String("userID", actorID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	files, err := s.fileRepo.ListByFolder(ctx, actorID, folderID)
	if err != nil {
		logger.Error("ListFiles: 查询文件失败", zap.String("userID", actorID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	listing.Folders = folders
	listing.Files = files
	return listing, nil
}

// Search 只搜索自己名下未删除的文件
func (s *fileService) Search(ctx context.Context, actorID, query string) ([]models.File, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.File{}, nil
	}

	ids, err := s.search.Search(ctx, actorID, query, searchLimit)
	if err != nil {
		logger.Error("Search: 搜索失败", zap.String("userID", actorID), zap.String("query", query), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrServerInternal, err)
	}
	files, err := s.fileRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	// 搜索引擎可能滞后于数据库，以数据库状态为准并保持命中顺序
	byID := make(map[string]models.File, len(files))
	for _, f := range files {
		if f.UserID == actorID && !f.Trashed {
			byID[f.ID] = f
		}
	}
	result := make([]models.File, 0, len(byID))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			result = append(result, f)
		}
	}
	return result, nil
}

// Recent 自己的文件和分享给自己的文件，按最后打开时间（没有则按创建时间）倒序
func (s *fileService) Recent(ctx context.Context, actorID string) ([]FileEntry, error) {
	owned, err := s.fileRepo.ListRecent(ctx, actorID, recentLimit)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	shares, err := s.shareRepo.ListSharedWith(ctx, actorID, s.now())
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	entries := make([]FileEntry, 0, len(owned)+len(shares))
	for i := range owned {
		entries = append(entries, newFileEntry(&owned[i], access.Grant{Owner: true, Level: models.PermissionEditor}))
	}
	entries = append(entries, sharedEntries(shares, false)...)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ActivityAt.After(entries[j].ActivityAt)
	})
	if len(entries) > recentLimit {
		entries = entries[:recentLimit]
	}
	return entries, nil
}

// Starred 自己加星标的文件，加上自己在分享记录上加星标的文件
func (s *fileService) Starred(ctx context.Context, actorID string) ([]FileEntry, error) {
	owned, err := s.fileRepo.ListStarred(ctx, actorID)
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	shares, err := s.shareRepo.ListSharedWith(ctx, actorID, s.now())
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}

	entries := make([]FileEntry, 0, len(owned))
	for i := range owned {
		entries = append(entries, newFileEntry(&owned[i], access.Grant{Owner: true, Level: models.PermissionEditor}))
	}
	entries = append(entries, sharedEntries(shares, true)...)
	return entries, nil
}

func (s *fileService) StorageUsage(ctx context.Context, actorID string) (*StorageUsage, error) {
	key := cache.GenerateStorageUsageKey(actorID)
	var cached StorageUsage
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	used, err := s.fileRepo.SumActiveSize(ctx, actorID)
	if err != nil {
		logger.Error("StorageUsage: 统计失败", zap.String("userID", actorID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	usage := newStorageUsage(used, s.cfg.Storage.QuotaBytes)
	if err := s.cache.Set(ctx, key, usage, storageUsageTTL); err != nil {
		logger.Warn("StorageUsage: 写入缓存失败", zap.String("userID", actorID), zap.Error(err))
	}
	return usage, nil
}

// Download 生成签名下载地址并记录打开时间
func (s *fileService) Download(ctx context.Context, actorID, fileID string) (*DownloadResult, error) {
	file, grant, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionDownload)
	if err != nil {
		return nil, err
	}

	result, err := s.presign(ctx, file)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.fileRepo.Updates(ctx, file.ID, map[string]any{"last_opened_at": now}); err != nil {
		logger.Warn("Download: 记录文件打开时间失败", zap.String("fileID", file.ID), zap.Error(err))
	}
	if grant.Share != nil {
		if err := s.shareRepo.Updates(ctx, grant.Share.ID, map[string]any{"last_opened_at": now}); err != nil {
			logger.Warn("Download: 记录分享打开时间失败", zap.String("shareID", grant.Share.ID), zap.Error(err))
		}
	}

	logger.Info("Download: 生成下载地址",
		zap.String("actorID", actorID),
		zap.String("fileID", file.ID),
		zap.Bool("owner", grant.Owner))
	return result, nil
}

func (s *fileService) presign(ctx context.Context, file *models.File) (*DownloadResult, error) {
	ttl := s.cfg.Storage.PresignedURLExpiry
	url, err := s.storage.PresignGetObject(ctx, file.StorageKey, ttl, file.Name)
	if err != nil {
		logger.Error("生成签名下载地址失败", zap.String("fileID", file.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrStorageError, err)
	}
	return &DownloadResult{File: file, URL: url, ExpiresAt: s.now().Add(ttl)}, nil
}

func (s *fileService) Rename(ctx context.Context, actorID, fileID, newName string) (*models.File, error) {
	name, err := ValidateName(newName)
	if err != nil {
		return nil, err
	}
	file, _, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionRename)
	if err != nil {
		return nil, err
	}
	if file.Name == name {
		return file, nil
	}

	if err := s.fileRepo.Updates(ctx, file.ID, map[string]any{"name": name}); err != nil {
		logger.Error("Rename: 更新文件名失败", zap.String("fileID", file.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	file.Name = name
	s.reindex(ctx, file)

	logger.Info("Rename: 文件重命名成功", zap.String("fileID", file.ID), zap.String("actorID", actorID))
	return file, nil
}

// Move 目标文件夹必须属于文件所有者，编辑权限的分享对象移动时同样适用
func (s *fileService) Move(ctx context.Context, actorID, fileID string, targetFolderID *string) (*models.File, error) {
	file, _, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionMove)
	if err != nil {
		return nil, err
	}
	if _, err := s.domainService.CheckTargetFolder(ctx, file.UserID, targetFolderID); err != nil {
		return nil, err
	}
	if sameFolder(file.FolderID, targetFolderID) {
		return file, nil
	}

	if err := s.fileRepo.Updates(ctx, file.ID, map[string]any{"folder_id": targetFolderID}); err != nil {
		logger.Error("Move: 更新所在目录失败", zap.String("fileID", file.ID), zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	file.FolderID = targetFolderID

	logger.Info("Move: 文件移动成功", zap.String("fileID", file.ID), zap.Any("targetFolderID", targetFolderID))
	return file, nil
}

// ToggleStar 所有者切换文件上的星标，分享对象切换自己分享记录上的星标
func (s *fileService) ToggleStar(ctx context.Context, actorID, fileID string) (bool, error) {
	file, grant, err := s.evaluator.AuthorizeFile(ctx, actorID, fileID, access.ActionStar)
	if err != nil {
		return false, err
	}

	if grant.Owner {
		starred, err := s.fileRepo.ToggleStarred(ctx, file.ID)
		if err != nil {
			logger.Error("ToggleStar: 切换星标失败", zap.String("fileID", file.ID), zap.Error(err))
			return false, xerr.Wrap(xerr.ErrDatabaseError, err)
		}
		return starred, nil
	}

	starred, err := s.shareRepo.ToggleStarred(ctx, grant.Share.ID)
	if err != nil {
		logger.Error("ToggleStar: 切换分享星标失败", zap.String("shareID", grant.Share.ID), zap.Error(err))
		return false, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	return starred, nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"gorm.io/gorm"
)

type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	FindByID(ctx context.Context, id string) (*models.File, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.File, error)
	FindByPublicToken(ctx context.Context, token string) (*models.File, error)
	ExistsByStorageKey(ctx context.Context, key string) (bool, error)
	// ListByFolder 列出目录下未删除的文件，folderID 为 nil 表示根目录
	ListByFolder(ctx context.Context, userID string, folderID *string) ([]models.File, error)
	ListTrashed(ctx context.Context, userID string) ([]models.File, error)
	ListStarred(ctx context.Context, userID string) ([]models.File, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.File, error)
	SearchByName(ctx context.Context, userID, query string, limit int) ([]models.File, error)
	SumActiveSize(ctx context.Context, userID string) (int64, error)
	Updates(ctx context.Context, id string, fields map[string]any) error
	// ToggleStarred 在数据库中原子地翻转星标，返回翻转后的值
	ToggleStarred(ctx context.Context, id string) (bool, error)

	// EnsurePublicToken 仅在 token 为空时写入 candidate，返回最终生效的 token
	EnsurePublicToken(ctx context.Context, id, candidate string) (string, error)
	ClearPublicToken(ctx context.Context, id string) error

	// 以下方法在事务中使用
	ReparentFolder(tx *gorm.DB, fromFolderID string, toFolderID *string) error
	Delete(tx *gorm.DB, id string) error
}

type fileRepository struct {
	db *gorm.DB
}

var _ FileRepository = (*fileRepository)(nil)

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *models.File) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("创建文件记录失败: %w", err)
	}
	return nil
}

func (r *fileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	var file models.File
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询文件失败: %w", err)
	}
	return &file, nil
}

func (r *fileRepository) FindByIDs(ctx context.Context, ids []string) ([]models.File, error) {
	var files []models.File
	if len(ids) == 0 {
		return files, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("批量查询文件失败: %w", err)
	}
	return files, nil
}

func (r *fileRepository) FindByPublicToken(ctx context.Context, token string) (*models.File, error) {
	if token == "" {
		return nil, nil
	}
	var file models.File
	err := r.db.WithContext(ctx).Where("public_share_token = ?", token).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("根据公开 token 查询文件失败: %w", err)
	}
	return &file, nil
}

func (r *fileRepository) ListByFolder(ctx context.Context, userID string, folderID *string) ([]models.File, error) {
	var files []models.File
	query := r.db.WithContext(ctx).Where("user_id = ? AND trashed = ?", userID, false)
	if folderID == nil {
		query = query.Where("folder_id IS NULL")
	} else {
		query = query.Where("folder_id = ?", *folderID)
	}
	if err := query.Order("name asc").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("查询文件列表失败: %w", err)
	}
	return files, nil
}

func (r *fileRepository) ListTrashed(ctx context.Context, userID string) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND trashed = ?", userID, true).
		Order("trashed_at desc").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("查询回收站文件失败: %w", err)
	}
	return files, nil
}

func (r *fileRepository) ListStarred(ctx context.Context, userID string) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND starred = ? AND trashed = ?", userID, true, false).
		Order("updated_at desc").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("查询星标文件失败: %w", err)
	}
	return files, nil
}

func (r *fileRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND trashed = ?", userID, false).
		Order("COALESCE(last_opened_at, created_at) desc").
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("查询最近文件失败: %w", err)
	}
	return files, nil
}

// SearchByName 按文件名模糊搜索，大小写不敏感，不包含回收站中的文件
func (r *fileRepository) SearchByName(ctx context.Context, userID, query string, limit int) ([]models.File, error) {
	var files []models.File
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND trashed = ?", userID, false).
		Where("LOWER(name) LIKE ?", pattern).
		Order("name asc").
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("搜索文件失败: %w", err)
	}
	return files, nil
}

func (r *fileRepository) SumActiveSize(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.File{}).
		Where("user_id = ? AND trashed = ?", userID, false).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("统计存储用量失败: %w", err)
	}
	return total, nil
}

// Updates 只更新指定字段，避免整行 Save 覆盖并发写入的 public_share_token
func (r *fileRepository) ExistsByStorageKey(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.File{}).Where("storage_key = ?", key).Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询存储 key 失败: %w", err)
	}
	return count > 0, nil
}

func (r *fileRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if err := r.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("更新文件失败: %w", err)
	}
	return nil
}

func (r *fileRepository) ToggleStarred(ctx context.Context, id string) (bool, error) {
	starred, err := toggleStarred(ctx, r.db, &models.File{}, id)
	if err != nil {
		return false, fmt.Errorf("切换文件星标失败: %w", err)
	}
	return starred, nil
}

// toggleStarred 用 SET starred = NOT starred 翻转，并在同一事务内读回结果
func toggleStarred(ctx context.Context, db *gorm.DB, model any, id string) (bool, error) {
	var flags []bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("id = ?", id).Update("starred", gorm.Expr("NOT starred"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(model).Where("id = ?", id).Pluck("starred", &flags).Error
	})
	if err != nil {
		return false, err
	}
	if len(flags) == 0 {
		return false, gorm.ErrRecordNotFound
	}
	return flags[0], nil
}

// EnsurePublicToken 用 compare-and-set 写入 token，并发调用只会有一个 token 生效
func (r *fileRepository) EnsurePublicToken(ctx context.Context, id, candidate string) (string, error) {
	db := r.db.WithContext(ctx)
	err := db.Model(&models.File{}).
		Where("id = ? AND public_share_token IS NULL", id).
		Update("public_share_token", candidate).Error
	if err != nil {
		return "", fmt.Errorf("写入公开 token 失败: %w", err)
	}

	var file models.File
	if err := db.Select("id", "public_share_token").Where("id = ?", id).First(&file).Error; err != nil {
		return "", fmt.Errorf("读取公开 token 失败: %w", err)
	}
	if !file.HasPublicToken() {
		return "", fmt.Errorf("文件 %s 的公开 token 写入后仍为空", id)
	}
	return *file.PublicShareToken, nil
}

func (r *fileRepository) ClearPublicToken(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.File{}).
		Where("id = ?", id).
		Update("public_share_token", nil).Error
	if err != nil {
		return fmt.Errorf("清除公开 token 失败: %w", err)
	}
	return nil
}

// ReparentFolder 把 fromFolderID 下的所有文件移动到 toFolderID
func (r *fileRepository) ReparentFolder(tx *gorm.DB, fromFolderID string, toFolderID *string) error {
	err := tx.Model(&models.File{}).
		Where("folder_id = ?", fromFolderID).
		Update("folder_id", toFolderID).Error
	if err != nil {
		return fmt.Errorf("迁移文件夹内文件失败: %w", err)
	}
	return nil
}

func (r *fileRepository) Delete(tx *gorm.DB, id string) error {
	if err := tx.Where("id = ?", id).Delete(&models.File{}).Error; err != nil {
		return fmt.Errorf("删除文件记录失败: %w", err)
	}
	return nil
}

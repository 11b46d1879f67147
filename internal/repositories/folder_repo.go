package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"gorm.io/gorm"
)

type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	FindByID(ctx context.Context, id string) (*models.Folder, error)
	// ListByParent 列出某个目录下未删除的子目录，parentID 为 nil 表示根目录
	ListByParent(ctx context.Context, userID string, parentID *string) ([]models.Folder, error)
	ListTrashed(ctx context.Context, userID string) ([]models.Folder, error)
	Updates(ctx context.Context, id string, fields map[string]any) error

	// 以下方法在事务中使用
	Reparent(tx *gorm.DB, fromParentID string, toParentID *string) error
	Delete(tx *gorm.DB, id string) error
}

type folderRepository struct {
	db *gorm.DB
}

var _ FolderRepository = (*folderRepository)(nil)

func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if err := r.db.WithContext(ctx).Create(folder).Error; err != nil {
		return fmt.Errorf("创建文件夹失败: %w", err)
	}
	return nil
}

func (r *folderRepository) FindByID(ctx context.Context, id string) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询文件夹失败: %w", err)
	}
	return &folder, nil
}

func (r *folderRepository) ListByParent(ctx context.Context, userID string, parentID *string) ([]models.Folder, error) {
	var folders []models.Folder
	query := r.db.WithContext(ctx).Where("user_id = ? AND trashed = ?", userID, false)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if err := query.Order("name asc").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("查询子文件夹失败: %w", err)
	}
	return folders, nil
}

func (r *folderRepository) ListTrashed(ctx context.Context, userID string) ([]models.Folder, error) {
	var folders []models.Folder
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND trashed = ?", userID, true).
		Order("trashed_at desc").
		Find(&folders).Error
	if err != nil {
		return nil, fmt.Errorf("查询回收站文件夹失败: %w", err)
	}
	return folders, nil
}

func (r *folderRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if err := r.db.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("更新文件夹失败: %w", err)
	}
	return nil
}

// Reparent 把 fromParentID 下的所有子目录挂到 toParentID 下
func (r *folderRepository) Reparent(tx *gorm.DB, fromParentID string, toParentID *string) error {
	err := tx.Model(&models.Folder{}).
		Where("parent_id = ?", fromParentID).
		Update("parent_id", toParentID).Error
	if err != nil {
		return fmt.Errorf("迁移子文件夹失败: %w", err)
	}
	return nil
}

func (r *folderRepository) Delete(tx *gorm.DB, id string) error {
	if err := tx.Where("id = ?", id).Delete(&models.Folder{}).Error; err != nil {
		return fmt.Errorf("删除文件夹失败: %w", err)
	}
	return nil
}

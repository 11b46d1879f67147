package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"gorm.io/gorm"
)

type ShareRepository interface {
	// Create 在 (file_id, shared_with_id) 冲突时返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, share *models.Share) error
	FindByID(ctx context.Context, id string) (*models.Share, error)
	FindByFileAndRecipient(ctx context.Context, fileID, recipientID string) (*models.Share, error)
	// ListSharedWith 列出分享给用户且仍然有效的记录（文件未删除、未过期）
	ListSharedWith(ctx context.Context, userID string, now time.Time) ([]models.Share, error)
	ListSharedBy(ctx context.Context, userID string) ([]models.Share, error)
	ListByFile(ctx context.Context, fileID string) ([]models.Share, error)
	Updates(ctx context.Context, id string, fields map[string]any) error
	// ToggleStarred 翻转接收者自己的星标
	ToggleStarred(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error

	// 以下方法在事务中使用
	DeleteByFile(tx *gorm.DB, fileID string) error
}

type shareRepository struct {
	db *gorm.DB
}

var _ ShareRepository = (*shareRepository)(nil)

// NewShareRepository 创建新的shareRepository实例
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

// 创建新的数据库记录
func (r *shareRepository) Create(ctx context.Context, share *models.Share) error {
	err := r.db.WithContext(ctx).Create(share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return gorm.ErrDuplicatedKey
		}
		return fmt.Errorf("创建分享记录失败: %w", err)
	}
	return nil
}

func (r *shareRepository) FindByID(ctx context.Context, id string) (*models.Share, error) {
	var share models.Share
	err := r.db.WithContext(ctx).Preload("File").Where("id = ?", id).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享记录失败: %w", err)
	}
	return &share, nil
}

// 查找文件是否已分享给特定用户
func (r *shareRepository) FindByFileAndRecipient(ctx context.Context, fileID, recipientID string) (*models.Share, error) {
	var share models.Share
	err := r.db.WithContext(ctx).
		Where("file_id = ? AND shared_with_id = ?", fileID, recipientID).
		First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("查询文件分享状态失败: %w", err)
	}
	return &share, nil
}

func (r *shareRepository) ListSharedWith(ctx context.Context, userID string, now time.Time) ([]models.Share, error) {
	var shares []models.Share
	err := r.db.WithContext(ctx).
		Joins("JOIN files ON files.id = shares.file_id").
		Where("shares.shared_with_id = ? AND files.trashed = ?", userID, false).
		Where("(shares.expires_at IS NULL OR shares.expires_at > ?)", now).
		Preload("File").
		Preload("SharedBy").
		Order("shares.created_at desc").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("查询收到的分享失败: %w", err)
	}
	return shares, nil
}

func (r *shareRepository) ListSharedBy(ctx context.Context, userID string) ([]models.Share, error) {
	var shares []models.Share
	err := r.db.WithContext(ctx).
		Where("shared_by_id = ?", userID).
		Preload("File").
		Preload("SharedWith").
		Order("created_at desc").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("查询发出的分享失败: %w", err)
	}
	return shares, nil
}

func (r *shareRepository) ListByFile(ctx context.Context, fileID string) ([]models.Share, error) {
	var shares []models.Share
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Preload("SharedWith").
		Order("created_at asc").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("查询文件的分享列表失败: %w", err)
	}
	return shares, nil
}

// 更新数据库记录
func (r *shareRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if err := r.db.WithContext(ctx).Model(&models.Share{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("更新分享记录失败: %w", err)
	}
	return nil
}

func (r *shareRepository) ToggleStarred(ctx context.Context, id string) (bool, error) {
	starred, err := toggleStarred(ctx, r.db, &models.Share{}, id)
	if err != nil {
		return false, fmt.Errorf("切换分享星标失败: %w", err)
	}
	return starred, nil
}

func (r *shareRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Share{}).Error; err != nil {
		return fmt.Errorf("删除分享记录失败: %w", err)
	}
	return nil
}

// DeleteByFile 文件被彻底删除时一并删除它的所有分享
func (r *shareRepository) DeleteByFile(tx *gorm.DB, fileID string) error {
	if err := tx.Where("file_id = ?", fileID).Delete(&models.Share{}).Error; err != nil {
		return fmt.Errorf("删除文件的分享记录失败: %w", err)
	}
	return nil
}

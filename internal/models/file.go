package models

import (
	"time"

	"gorm.io/gorm"
)

// File 对应 files 表
type File struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	StorageKey       string     `gorm:"type:varchar(512);not null;uniqueIndex" json:"-"` // 对象存储中的 key，不对外暴露
	MimeType         string     `gorm:"type:varchar(128);not null;default:''" json:"mime_type"`
	Size             int64      `gorm:"not null;default:0" json:"size"`
	UserID           string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	FolderID         *string    `gorm:"type:varchar(36);index" json:"folder_id"` // 所在文件夹，根目录为 null
	Trashed          bool       `gorm:"not null;default:false;index" json:"trashed"`
	TrashedAt        *time.Time `json:"trashed_at,omitempty"`
	Starred          bool       `gorm:"not null;default:false" json:"starred"`
	PublicShareToken *string    `gorm:"type:varchar(64);uniqueIndex" json:"public_share_token,omitempty"`
	LastOpenedAt     *time.Time `json:"last_opened_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (File) TableName() string {
	return "files"
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// HasPublicToken 判断文件是否已经生成公开访问 token
func (f *File) HasPublicToken() bool {
	return f.PublicShareToken != nil && *f.PublicShareToken != ""
}

// ActivityAt 用于"最近文件"排序，从未打开过的文件使用创建时间
func (f *File) ActivityAt() time.Time {
	if f.LastOpenedAt != nil {
		return *f.LastOpenedAt
	}
	return f.CreatedAt
}

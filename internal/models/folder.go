package models

import (
	"time"

	"gorm.io/gorm"
)

// Folder 对应 folders 表，每个用户的文件夹构成一片森林
type Folder struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	UserID    string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	ParentID  *string    `gorm:"type:varchar(36);index" json:"parent_id"` // 父文件夹，根目录为 null
	Trashed   bool       `gorm:"not null;default:false;index" json:"trashed"`
	TrashedAt *time.Time `json:"trashed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (Folder) TableName() string {
	return "folders"
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

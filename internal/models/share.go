package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Permission 分享权限级别
type Permission string

const (
	PermissionViewer Permission = "VIEWER"
	PermissionEditor Permission = "EDITOR"
)

func (p Permission) rank() int {
	switch p {
	case PermissionViewer:
		return 1
	case PermissionEditor:
		return 2
	default:
		return 0
	}
}

// Valid 判断是否是已知的权限级别
func (p Permission) Valid() bool {
	return p.rank() > 0
}

// Allows 判断当前权限是否满足 required
func (p Permission) Allows(required Permission) bool {
	return p.Valid() && p.rank() >= required.rank()
}

// ParsePermission 解析请求中的权限字符串，大小写不敏感
func ParsePermission(s string) (Permission, bool) {
	p := Permission(strings.ToUpper(strings.TrimSpace(s)))
	return p, p.Valid()
}

// Share 对应 shares 表: 把一个文件授权给另一个用户
type Share struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileID       string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_share_file_recipient" json:"file_id"`
	SharedByID   string     `gorm:"type:varchar(36);not null;index" json:"shared_by_id"`
	SharedWithID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_share_file_recipient;index" json:"shared_with_id"`
	Permission   Permission `gorm:"type:varchar(16);not null" json:"permission"`
	Starred      bool       `gorm:"not null;default:false" json:"starred"` // 接收者自己的星标
	LastOpenedAt *time.Time `json:"last_opened_at,omitempty"`                 // 接收者最后一次打开的时间
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联模型预加载
	File       *File `gorm:"foreignKey:FileID" json:"file,omitempty"`
	SharedBy   *User `gorm:"foreignKey:SharedByID" json:"shared_by,omitempty"`
	SharedWith *User `gorm:"foreignKey:SharedWithID" json:"shared_with,omitempty"`
}

// 指定gorm的表名
func (Share) TableName() string {
	return "shares"
}

func (s *Share) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Expired 判断分享在 now 时刻是否已过期，过期的分享视为不存在
func (s *Share) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 对应 users 表
type User struct {
	ID           string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // - 表示不输出到 JSON
	Name         string `gorm:"type:varchar(128);not null;default:''" json:"name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// DisplayName 用于通知和邮件，没有昵称时使用邮箱
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// ensureID 在插入前为空主键生成 UUID
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

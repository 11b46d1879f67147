package models

import (
	"time"

	"gorm.io/gorm"
)

const NotificationTypeShare = "SHARE"

// Notification 站内通知，只是副作用记录
type Notification struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Type       string    `gorm:"type:varchar(32);not null" json:"type"`
	Read       bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	ActionLink string    `gorm:"type:varchar(512);not null;default:''" json:"action_link,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

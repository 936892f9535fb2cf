package models

import "time"

type NotificationType string

const (
	NotificationTestAvailable NotificationType = "test_available"
	NotificationResultReady   NotificationType = "result_ready"
	NotificationAchievement   NotificationType = "achievement"
	NotificationWarning       NotificationType = "warning"
	NotificationInfo          NotificationType = "info"
)

type Notification struct {
	ID      string           `json:"id" gorm:"primaryKey;size:64"`
	UserID  string           `json:"user_id" gorm:"not null;index;size:64"`
	Title   string           `json:"title" gorm:"not null;size:200" validate:"required,max=200"`
	Message string           `json:"message" gorm:"type:text;not null" validate:"required,max=2000"`
	Type    NotificationType `json:"type" gorm:"not null;default:info" validate:"omitempty,oneof=test_available result_ready achievement warning info"`

	IsRead    bool    `json:"is_read" gorm:"not null;default:false;index"`
	ActionURL *string `json:"action_url" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

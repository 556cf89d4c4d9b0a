package models

import "time"

const (
	NotificationTypeMessage = "message"
	NotificationTypeFollow  = "follow"
	NotificationTypeListing = "listing"
	NotificationTypeSystem  = "system"
)

// Notification is the durable record of a delivered (or deliverable) alert.
// Live socket pushes are best-effort; IsRead on this row is the truth.
type Notification struct {
	ID          string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RecipientID string            `gorm:"type:varchar(36);index" json:"recipient_id"`
	SenderID    *string           `gorm:"type:varchar(36)" json:"sender_id,omitempty"`
	Type        string            `gorm:"type:varchar(20);index" json:"type"`
	Title       string            `gorm:"type:varchar(255)" json:"title"`
	Body        string            `gorm:"type:text" json:"body"`
	Data        map[string]string `gorm:"serializer:json" json:"data,omitempty"`
	IsRead      bool              `gorm:"default:false;index" json:"is_read"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

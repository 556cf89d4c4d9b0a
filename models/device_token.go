package models

import "time"

const (
	DeviceTypeIOS     = "ios"
	DeviceTypeAndroid = "android"
	DeviceTypeWeb     = "web"
)

// DeviceToken is a push-capable endpoint. (UserID, Token) is unique; at most
// one active token may exist per (UserID, DeviceID); app reinstalls rotate
// the token, and tokens moving to another account deactivate the old row.
type DeviceToken struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string    `gorm:"type:varchar(36);index;uniqueIndex:idx_user_token" json:"user_id"`
	Token      string    `gorm:"type:varchar(512);index;uniqueIndex:idx_user_token,length:255" json:"token"`
	DeviceType string    `gorm:"type:varchar(10)" json:"device_type"`
	DeviceName *string   `gorm:"type:varchar(128)" json:"device_name,omitempty"`
	DeviceID   *string   `gorm:"type:varchar(128);index" json:"device_id,omitempty"`
	IsActive   bool      `gorm:"default:true;index" json:"is_active"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

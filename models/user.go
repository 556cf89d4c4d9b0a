package models

import "time"

// User is the public profile slice the messaging core reads. Account
// management lives in the main API; this service only joins against it.
type User struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username   string     `gorm:"type:varchar(64);uniqueIndex" json:"username"`
	AvatarURL  string     `gorm:"type:varchar(512)" json:"avatar_url"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// UserBlock is a directed block edge: Blocker no longer accepts contact from
// Blocked. Written by the main API, read here at conversation/send time.
type UserBlock struct {
	BlockerID string    `gorm:"primaryKey;type:varchar(36)" json:"blocker_id"`
	BlockedID string    `gorm:"primaryKey;type:varchar(36)" json:"blocked_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

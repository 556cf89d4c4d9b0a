package models

import "time"

// Participant is a user's membership in a conversation, carrying the per-user
// read cursor and mute state. LeftAt marks a soft membership end.
type Participant struct {
	ConversationID string     `gorm:"primaryKey;type:varchar(36)" json:"conversation_id"`
	UserID         string     `gorm:"primaryKey;type:varchar(36);index" json:"user_id"`
	LastReadAt     *time.Time `json:"last_read_at"`
	IsMuted        bool       `gorm:"default:false" json:"is_muted"`
	JoinedAt       time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt         *time.Time `json:"left_at,omitempty"`
}

// Active reports whether the membership is still live.
func (p *Participant) Active() bool {
	return p != nil && p.LeftAt == nil
}

package models

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeSystem = "system"
)

// Message is immutable once created except for sender edits (content +
// IsEdited) and soft deletion via the DeletedAt tombstone. SenderID is empty
// for system messages, Content for media-only ones.
type Message struct {
	MessageID      string     `gorm:"primaryKey;type:varchar(36)" json:"message_id"`
	ConversationID string     `gorm:"type:varchar(36);index" json:"conversation_id"`
	SenderID       *string    `gorm:"type:varchar(36);index" json:"sender_id,omitempty"`
	Content        *string    `gorm:"type:text" json:"content,omitempty"`
	Type           string     `gorm:"type:varchar(10);default:'text'" json:"type"`
	MediaURL       *string    `gorm:"type:varchar(512)" json:"media_url,omitempty"`
	IsEdited       bool       `gorm:"default:false" json:"is_edited"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	DeletedAt      *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (m *Message) Deleted() bool { return m.DeletedAt != nil }

// SentBy reports whether userID authored the message.
func (m *Message) SentBy(userID string) bool {
	return m.SenderID != nil && *m.SenderID == userID
}

package models

import "time"

const (
	ConversationTypePrivate = "private"
	ConversationTypeGroup   = "group"
)

// Conversation holds a private or group thread. For private conversations the
// participant pair is stored normalized (ParticipantA < ParticipantB) so the
// unique index enforces one conversation per unordered user pair. Group
// conversations leave the pair NULL, which the index ignores.
type Conversation struct {
	ConversationID string    `gorm:"primaryKey;type:varchar(36)" json:"conversation_id"`
	Type           string    `gorm:"type:varchar(10);index" json:"type"`
	ParticipantA   *string   `gorm:"type:varchar(36);uniqueIndex:idx_private_pair" json:"-"`
	ParticipantB   *string   `gorm:"type:varchar(36);uniqueIndex:idx_private_pair" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`
}

// NormalizePair orders a user pair so (A,B) and (B,A) map to the same row.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

package models

// NotificationPreference carries per-type opt-out flags plus the presence
// visibility switches. A missing row means everything enabled.
type NotificationPreference struct {
	UserID        string `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	Messages      bool   `gorm:"default:true" json:"messages"`
	Follows       bool   `gorm:"default:true" json:"follows"`
	Listings      bool   `gorm:"default:true" json:"listings"`
	System        bool   `gorm:"default:true" json:"system"`
	AppearOffline bool   `gorm:"default:false" json:"appear_offline"`
	ShowLastSeen  bool   `gorm:"default:true" json:"show_last_seen"`
}

// Allows reports whether the user accepts notifications of the given type.
func (p *NotificationPreference) Allows(notificationType string) bool {
	if p == nil {
		return true
	}
	switch notificationType {
	case NotificationTypeMessage:
		return p.Messages
	case NotificationTypeFollow:
		return p.Follows
	case NotificationTypeListing:
		return p.Listings
	case NotificationTypeSystem:
		return p.System
	default:
		return true
	}
}

// Defaults returns the implicit preference row for a user without one.
func DefaultPreferences(userID string) *NotificationPreference {
	return &NotificationPreference{
		UserID:       userID,
		Messages:     true,
		Follows:      true,
		Listings:     true,
		System:       true,
		ShowLastSeen: true,
	}
}

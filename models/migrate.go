package models

import "gorm.io/gorm"

// Migrate auto-migrates every table owned or read by the messaging core.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserBlock{},
		&Conversation{},
		&Participant{},
		&Message{},
		&DeviceToken{},
		&Notification{},
		&NotificationPreference{},
	)
}

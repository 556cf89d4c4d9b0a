package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	GetPreferences(ctx context.Context, userID string) (*models.NotificationPreference, error)
	SavePreferences(ctx context.Context, pref *models.NotificationPreference) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	err := r.db.WithContext(ctx).Create(n).Error
	return errors.Wrap(err, "notificationRepo.Create")
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "notificationRepo.ListForUser")
	}
	return rows, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = false", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "notificationRepo.MarkRead")
	}
	return res.RowsAffected > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "notificationRepo.MarkAllRead")
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", userID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "notificationRepo.UnreadCount")
	}
	return count, nil
}

func (r *notificationRepository) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "notificationRepo.GetPreferences")
	}
	return &pref, nil
}

func (r *notificationRepository) SavePreferences(ctx context.Context, pref *models.NotificationPreference) error {
	err := r.db.WithContext(ctx).Save(pref).Error
	return errors.Wrap(err, "notificationRepo.SavePreferences")
}

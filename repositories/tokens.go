package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
)

type DeviceTokenRepository interface {
	// InTx runs fn against a repository bound to one transaction, so the
	// deactivations that accompany an insert commit atomically with it.
	InTx(ctx context.Context, fn func(repo DeviceTokenRepository) error) error

	FindByUserAndToken(ctx context.Context, userID, token string) (*models.DeviceToken, error)
	FindActiveByToken(ctx context.Context, token string) ([]models.DeviceToken, error)
	Save(ctx context.Context, dt *models.DeviceToken) error
	DeactivateOthersForDevice(ctx context.Context, userID, deviceID, keepID string) (int64, error)
	DeactivateByID(ctx context.Context, id string) error
	DeactivateByUserAndToken(ctx context.Context, userID, token string) (bool, error)
	DeactivateAllForUser(ctx context.Context, userID string) (int64, error)
	DeactivateByTokens(ctx context.Context, tokens []string) (int64, error)
	ActiveForUser(ctx context.Context, userID string) ([]models.DeviceToken, error)
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type deviceTokenRepository struct {
	db *gorm.DB
}

func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) InTx(ctx context.Context, fn func(repo DeviceTokenRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&deviceTokenRepository{db: tx})
	})
}

func (r *deviceTokenRepository) FindByUserAndToken(ctx context.Context, userID, token string) (*models.DeviceToken, error) {
	var dt models.DeviceToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		First(&dt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "tokenRepo.FindByUserAndToken")
	}
	return &dt, nil
}

func (r *deviceTokenRepository) FindActiveByToken(ctx context.Context, token string) ([]models.DeviceToken, error) {
	var rows []models.DeviceToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND is_active = true", token).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "tokenRepo.FindActiveByToken")
	}
	return rows, nil
}

func (r *deviceTokenRepository) Save(ctx context.Context, dt *models.DeviceToken) error {
	err := r.db.WithContext(ctx).Save(dt).Error
	return errors.Wrap(err, "tokenRepo.Save")
}

func (r *deviceTokenRepository) DeactivateOthersForDevice(ctx context.Context, userID, deviceID, keepID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("user_id = ? AND device_id = ? AND id <> ? AND is_active = true", userID, deviceID, keepID).
		Update("is_active", false)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "tokenRepo.DeactivateOthersForDevice")
	}
	return res.RowsAffected, nil
}

func (r *deviceTokenRepository) DeactivateByID(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	return errors.Wrap(err, "tokenRepo.DeactivateByID")
}

func (r *deviceTokenRepository) DeactivateByUserAndToken(ctx context.Context, userID, token string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("user_id = ? AND token = ? AND is_active = true", userID, token).
		Update("is_active", false)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "tokenRepo.DeactivateByUserAndToken")
	}
	return res.RowsAffected > 0, nil
}

func (r *deviceTokenRepository) DeactivateAllForUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("user_id = ? AND is_active = true", userID).
		Update("is_active", false)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "tokenRepo.DeactivateAllForUser")
	}
	return res.RowsAffected, nil
}

func (r *deviceTokenRepository) DeactivateByTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("token IN ? AND is_active = true", tokens).
		Update("is_active", false)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "tokenRepo.DeactivateByTokens")
	}
	return res.RowsAffected, nil
}

func (r *deviceTokenRepository) ActiveForUser(ctx context.Context, userID string) ([]models.DeviceToken, error) {
	var rows []models.DeviceToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = true", userID).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "tokenRepo.ActiveForUser")
	}
	return rows, nil
}

func (r *deviceTokenRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_active = false AND last_used_at < ?", cutoff).
		Delete(&models.DeviceToken{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "tokenRepo.DeleteInactiveBefore")
	}
	return res.RowsAffected, nil
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
	"github.com/BekaChkhiro/rideway-api-sub002/pkg/apperrors"
	"github.com/BekaChkhiro/rideway-api-sub002/repositories"
)

// DeviceTokenService owns the push-endpoint registry.
type DeviceTokenService struct {
	repo repositories.DeviceTokenRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewDeviceTokenService(repo repositories.DeviceTokenRepository, log *zap.Logger) *DeviceTokenService {
	return &DeviceTokenService{repo: repo, log: log, now: time.Now}
}

type RegisterTokenInput struct {
	Token      string  `json:"token" binding:"required"`
	DeviceType string  `json:"device_type" binding:"required"`
	DeviceName *string `json:"device_name"`
	DeviceID   *string `json:"device_id"`
}

// Register upserts a push endpoint. Same (user, token) updates in place; a
// token seen under another user moves over (shared/reset devices reuse
// tokens); a known deviceId keeps only the newest token active. All
// accompanying deactivations commit with the insert.
func (s *DeviceTokenService) Register(ctx context.Context, userID string, in RegisterTokenInput) (*models.DeviceToken, error) {
	if in.Token == "" {
		return nil, apperrors.InvalidArg("token is required")
	}
	switch in.DeviceType {
	case models.DeviceTypeIOS, models.DeviceTypeAndroid, models.DeviceTypeWeb:
	default:
		return nil, apperrors.InvalidArg("unknown device type")
	}

	var result *models.DeviceToken
	err := s.repo.InTx(ctx, func(repo repositories.DeviceTokenRepository) error {
		existing, err := repo.FindByUserAndToken(ctx, userID, in.Token)
		if err != nil {
			return err
		}

		if existing != nil {
			existing.DeviceType = in.DeviceType
			existing.DeviceName = in.DeviceName
			existing.DeviceID = in.DeviceID
			existing.IsActive = true
			existing.LastUsedAt = s.now()
			if err := repo.Save(ctx, existing); err != nil {
				return err
			}
			result = existing
		} else {
			foreign, err := repo.FindActiveByToken(ctx, in.Token)
			if err != nil {
				return err
			}
			for _, row := range foreign {
				if row.UserID == userID {
					continue
				}
				if err := repo.DeactivateByID(ctx, row.ID); err != nil {
					return err
				}
				s.log.Info("device token transferred",
					zap.String("from_user", row.UserID),
					zap.String("to_user", userID))
			}

			result = &models.DeviceToken{
				ID:         uuid.New().String(),
				UserID:     userID,
				Token:      in.Token,
				DeviceType: in.DeviceType,
				DeviceName: in.DeviceName,
				DeviceID:   in.DeviceID,
				IsActive:   true,
				LastUsedAt: s.now(),
			}
			if err := repo.Save(ctx, result); err != nil {
				return err
			}
		}

		if in.DeviceID != nil && *in.DeviceID != "" {
			if _, err := repo.DeactivateOthersForDevice(ctx, userID, *in.DeviceID, result.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Unregister deactivates one endpoint; false means it was not found active.
func (s *DeviceTokenService) Unregister(ctx context.Context, userID, token string) (bool, error) {
	return s.repo.DeactivateByUserAndToken(ctx, userID, token)
}

func (s *DeviceTokenService) UnregisterAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeactivateAllForUser(ctx, userID)
}

// RemoveInvalidTokens is the worker's feedback loop for tokens the provider
// reports as permanently invalid.
func (s *DeviceTokenService) RemoveInvalidTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	count, err := s.repo.DeactivateByTokens(ctx, tokens)
	if err != nil {
		return err
	}
	s.log.Info("deactivated invalid device tokens", zap.Int64("count", count))
	return nil
}

func (s *DeviceTokenService) ActiveTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.repo.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, row.Token)
	}
	return tokens, nil
}

// DeleteInactive hard-deletes rows inactive beyond the retention window.
// Runs from the periodic sweep, never on the request path.
func (s *DeviceTokenService) DeleteInactive(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	count, err := s.repo.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("swept inactive device tokens", zap.Int64("count", count))
	}
	return count, nil
}

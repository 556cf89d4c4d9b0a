package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
}

// BlockChecker answers whether either user has blocked the other. Consulted
// at conversation creation and again at send time.
type BlockChecker interface {
	IsBlocked(ctx context.Context, userA, userB string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "userRepo.GetByID")
	}
	return &u, nil
}

func (r *userRepository) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", at).Error
	return errors.Wrap(err, "userRepo.TouchLastSeen")
}

type blockRepository struct {
	db *gorm.DB
}

func NewBlockChecker(db *gorm.DB) BlockChecker {
	return &blockRepository{db: db}
}

func (r *blockRepository) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "blockRepo.IsBlocked")
	}
	return count > 0, nil
}

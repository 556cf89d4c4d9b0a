package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
)

// ErrDuplicatePair is returned when two callers race to create the same
// private conversation; the loser re-reads the winner's row.
var ErrDuplicatePair = errors.New("private conversation already exists")

type ConversationRepository interface {
	FindPrivateBetween(ctx context.Context, userA, userB string) (*models.Conversation, error)
	CreatePrivate(ctx context.Context, conv *models.Conversation, participants []models.Participant) error
	GetByID(ctx context.Context, conversationID string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	Touch(ctx context.Context, conversationID string, at time.Time) error
	Participant(ctx context.Context, conversationID, userID string) (*models.Participant, error)
	Participants(ctx context.Context, conversationID string) ([]models.Participant, error)
	AdvanceReadCursor(ctx context.Context, conversationID, userID string, at time.Time) (bool, error)
	SetMuted(ctx context.Context, conversationID, userID string, muted bool) error
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindPrivateBetween(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	a, b := models.NormalizePair(userA, userB)
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("type = ? AND participant_a = ? AND participant_b = ?", models.ConversationTypePrivate, a, b).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.FindPrivateBetween")
	}
	return &conv, nil
}

func (r *conversationRepository) CreatePrivate(ctx context.Context, conv *models.Conversation, participants []models.Participant) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicatePair
		}
		return errors.Wrap(err, "conversationRepo.CreatePrivate")
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.GetByID")
	}
	return &conv, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN participants ON participants.conversation_id = conversations.conversation_id").
		Where("participants.user_id = ? AND participants.left_at IS NULL", userID).
		Order("conversations.updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.ListForUser")
	}
	return convs, nil
}

func (r *conversationRepository) Touch(ctx context.Context, conversationID string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("conversation_id = ?", conversationID).
		Update("updated_at", at).Error
	return errors.Wrap(err, "conversationRepo.Touch")
}

func (r *conversationRepository) Participant(ctx context.Context, conversationID, userID string) (*models.Participant, error) {
	var p models.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.Participant")
	}
	return &p, nil
}

func (r *conversationRepository) Participants(ctx context.Context, conversationID string) ([]models.Participant, error) {
	var parts []models.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Find(&parts).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.Participants")
	}
	return parts, nil
}

// AdvanceReadCursor moves the participant's lastReadAt forward, never back.
// The condition makes concurrent mark-read calls from multiple devices safe:
// whichever carries the later timestamp wins, the other is a no-op.
func (r *conversationRepository) AdvanceReadCursor(ctx context.Context, conversationID, userID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("conversation_id = ? AND user_id = ? AND (last_read_at IS NULL OR last_read_at < ?)",
			conversationID, userID, at).
		Update("last_read_at", at)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "conversationRepo.AdvanceReadCursor")
	}
	return res.RowsAffected > 0, nil
}

func (r *conversationRepository) SetMuted(ctx context.Context, conversationID, userID string, muted bool) error {
	err := r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("is_muted", muted).Error
	return errors.Wrap(err, "conversationRepo.SetMuted")
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// mysql driver surfaces 1062 without a typed sentinel on older setups
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}

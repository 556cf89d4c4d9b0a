package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, messageID string) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error)
	UpdateContent(ctx context.Context, messageID, content string) error
	SoftDelete(ctx context.Context, messageID string, at time.Time) error
	UnreadCount(ctx context.Context, conversationID, userID string, since *time.Time) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	err := r.db.WithContext(ctx).Create(msg).Error
	return errors.Wrap(err, "messageRepo.Create")
}

func (r *messageRepository) GetByID(ctx context.Context, messageID string) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetByID")
	}
	return &msg, nil
}

// ListByConversation returns newest-first pages with tombstones filtered out.
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND deleted_at IS NULL", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.ListByConversation")
	}
	return msgs, nil
}

func (r *messageRepository) UpdateContent(ctx context.Context, messageID, content string) error {
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("message_id = ? AND deleted_at IS NULL", messageID).
		Updates(map[string]interface{}{"content": content, "is_edited": true}).Error
	return errors.Wrap(err, "messageRepo.UpdateContent")
}

func (r *messageRepository) SoftDelete(ctx context.Context, messageID string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("message_id = ? AND deleted_at IS NULL", messageID).
		Update("deleted_at", at).Error
	return errors.Wrap(err, "messageRepo.SoftDelete")
}

// UnreadCount counts live messages from other senders after the read cursor.
// A nil cursor means the participant has read nothing yet.
func (r *messageRepository) UnreadCount(ctx context.Context, conversationID, userID string, since *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND deleted_at IS NULL", conversationID).
		Where("(sender_id IS NULL OR sender_id <> ?)", userID)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "messageRepo.UnreadCount")
	}
	return count, nil
}

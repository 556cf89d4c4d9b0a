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

// SocketEmitter is the gateway surface the dispatcher needs: best-effort
// delivery to a user's live sockets plus an online check.
type SocketEmitter interface {
	EmitToUser(userID, event string, payload interface{}) int
	IsOnline(userID string) bool
}

// PushEnqueuer queues a push job; delivery happens asynchronously.
type PushEnqueuer interface {
	Enqueue(job PushJob) bool
}

type NotificationInput struct {
	RecipientID string
	SenderID    *string
	Type        string
	Title       string
	Body        string
	Data        map[string]string
}

type NotificationOptions struct {
	SkipPreferenceCheck  bool
	SkipSocketEmit       bool
	SkipPushNotification bool
	// Tokens bypasses the recipient's registry lookup (bulk sends, tests).
	Tokens []string
}

// NotificationService turns domain events into persisted notifications and
// picks the delivery channels. The persisted row is the durable truth; socket
// and push delivery are both best-effort.
type NotificationService struct {
	repo    repositories.NotificationRepository
	emitter SocketEmitter
	queue   PushEnqueuer
	log     *zap.Logger
	now     func() time.Time
}

func NewNotificationService(repo repositories.NotificationRepository, emitter SocketEmitter, queue PushEnqueuer, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, emitter: emitter, queue: queue, log: log, now: time.Now}
}

// CreateNotification persists and fans out one notification. A recipient who
// opted out of the type gets nothing, not even a row, and the call
// returns (nil, nil).
func (s *NotificationService) CreateNotification(ctx context.Context, in NotificationInput, opts NotificationOptions) (*models.Notification, error) {
	if !opts.SkipPreferenceCheck {
		pref, err := s.repo.GetPreferences(ctx, in.RecipientID)
		if err != nil {
			return nil, err
		}
		if !pref.Allows(in.Type) {
			return nil, nil
		}
	}

	n := &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: in.RecipientID,
		SenderID:    in.SenderID,
		Type:        in.Type,
		Title:       in.Title,
		Body:        in.Body,
		Data:        in.Data,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if !opts.SkipSocketEmit && s.emitter != nil {
		delivered := s.emitter.EmitToUser(in.RecipientID, "notification:new", n)
		s.log.Debug("notification socket emit",
			zap.String("recipient", in.RecipientID),
			zap.Int("sockets", delivered))
	}

	if !opts.SkipPushNotification && s.queue != nil {
		s.queue.Enqueue(PushJob{
			UserID: in.RecipientID,
			Tokens: opts.Tokens,
			Title:  in.Title,
			Body:   in.Body,
			Data:   in.Data,
		})
	}

	return n, nil
}

func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	updated, err := s.repo.MarkRead(ctx, notificationID, userID, s.now())
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.NotFound("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *NotificationService) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	return s.repo.GetPreferences(ctx, userID)
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, pref *models.NotificationPreference) error {
	return s.repo.SavePreferences(ctx, pref)
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
	"github.com/BekaChkhiro/rideway-api-sub002/pkg/apperrors"
	"github.com/BekaChkhiro/rideway-api-sub002/repositories"
)

// RoomBroadcaster is the gateway surface the conversation store needs.
type RoomBroadcaster interface {
	SocketEmitter
	BroadcastToRoom(conversationID, event string, payload interface{})
}

// NotificationDispatcher decouples the store from the concrete dispatcher.
type NotificationDispatcher interface {
	CreateNotification(ctx context.Context, in NotificationInput, opts NotificationOptions) (*models.Notification, error)
}

// ChatService owns conversations, participants, messages and read cursors,
// and enforces the social invariants (blocking, participancy) on every write.
type ChatService struct {
	convs    repositories.ConversationRepository
	msgs     repositories.MessageRepository
	users    repositories.UserRepository
	blocks   repositories.BlockChecker
	hub      RoomBroadcaster
	notifier NotificationDispatcher
	log      *zap.Logger
	now      func() time.Time
}

func NewChatService(
	convs repositories.ConversationRepository,
	msgs repositories.MessageRepository,
	users repositories.UserRepository,
	blocks repositories.BlockChecker,
	hub RoomBroadcaster,
	notifier NotificationDispatcher,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		convs:    convs,
		msgs:     msgs,
		users:    users,
		blocks:   blocks,
		hub:      hub,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// ConversationView is a conversation as one user sees it: the other side's
// profile, their own unread count and mute flag.
type ConversationView struct {
	ConversationID string       `json:"conversation_id"`
	Type           string       `json:"type"`
	Participant    *models.User `json:"participant,omitempty"`
	UnreadCount    int64        `json:"unread_count"`
	IsMuted        bool         `json:"is_muted"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type SendMessageInput struct {
	Content  *string `json:"content"`
	Type     string  `json:"type"`
	MediaURL *string `json:"media_url"`
}

// FindOrCreateConversation returns the single private conversation between
// the two users, creating it on first contact. Blocked pairs are rejected.
// Two racing creators are resolved by the unique pair index: the loser
// re-reads the winner's row.
func (s *ChatService) FindOrCreateConversation(ctx context.Context, userID, otherID string) (*ConversationView, error) {
	if userID == otherID {
		return nil, apperrors.InvalidArg("cannot start a conversation with yourself")
	}

	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, apperrors.NotFound("user not found")
	}

	blocked, err := s.blocks.IsBlocked(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperrors.Forbidden("conversation not allowed")
	}

	conv, err := s.convs.FindPrivateBetween(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		a, b := models.NormalizePair(userID, otherID)
		now := s.now()
		conv = &models.Conversation{
			ConversationID: uuid.New().String(),
			Type:           models.ConversationTypePrivate,
			ParticipantA:   &a,
			ParticipantB:   &b,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		participants := []models.Participant{
			{ConversationID: conv.ConversationID, UserID: userID, JoinedAt: now},
			{ConversationID: conv.ConversationID, UserID: otherID, JoinedAt: now},
		}
		err = s.convs.CreatePrivate(ctx, conv, participants)
		if errors.Is(err, repositories.ErrDuplicatePair) {
			conv, err = s.convs.FindPrivateBetween(ctx, userID, otherID)
			if err == nil && conv == nil {
				err = apperrors.Internal("conversation vanished after duplicate insert")
			}
		}
		if err != nil {
			return nil, err
		}
	}

	return s.buildView(ctx, conv, userID)
}

// SendMessage persists a message from an active participant, bumps the
// conversation's updatedAt, broadcasts to the room and dispatches
// notifications to the other participants. Blocks are rechecked at send
// time, not just at creation.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID string, in SendMessageInput) (*models.Message, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.NotFound("conversation not found")
	}

	if _, err := s.requireActiveParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	if conv.Type == models.ConversationTypePrivate && conv.ParticipantA != nil && conv.ParticipantB != nil {
		otherID := *conv.ParticipantA
		if otherID == senderID {
			otherID = *conv.ParticipantB
		}
		blocked, err := s.blocks.IsBlocked(ctx, senderID, otherID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, apperrors.Forbidden("messaging not allowed")
		}
	}

	if (in.Content == nil || *in.Content == "") && (in.MediaURL == nil || *in.MediaURL == "") {
		return nil, apperrors.InvalidArg("message needs content or media")
	}
	msgType := in.Type
	switch msgType {
	case "":
		msgType = models.MessageTypeText
	case models.MessageTypeText, models.MessageTypeImage:
	default:
		return nil, apperrors.InvalidArg("unknown message type")
	}

	now := s.now()
	msg := &models.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       &senderID,
		Content:        in.Content,
		Type:           msgType,
		MediaURL:       in.MediaURL,
		CreatedAt:      now,
	}
	if err := s.msgs.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.convs.Touch(ctx, conversationID, now); err != nil {
		s.log.Error("failed to bump conversation", zap.String("conversation_id", conversationID), zap.Error(err))
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(conversationID, "message:new", msg)
	}

	s.notifyRecipients(ctx, conv, msg, senderID)

	return msg, nil
}

// notifyRecipients dispatches a message notification to every other active,
// unmuted participant. Dispatch failures are logged, never propagated; the
// message is already persisted.
func (s *ChatService) notifyRecipients(ctx context.Context, conv *models.Conversation, msg *models.Message, senderID string) {
	if s.notifier == nil {
		return
	}

	participants, err := s.convs.Participants(ctx, conv.ConversationID)
	if err != nil {
		s.log.Error("failed to load participants for notify", zap.Error(err))
		return
	}

	title := "New message"
	if sender, err := s.users.GetByID(ctx, senderID); err == nil && sender != nil {
		title = sender.Username
	}
	body := "Sent you an attachment"
	if msg.Content != nil && *msg.Content != "" {
		body = *msg.Content
	}

	for _, p := range participants {
		if p.UserID == senderID || !p.Active() || p.IsMuted {
			continue
		}
		skipPush := s.hub != nil && s.hub.IsOnline(p.UserID)
		_, err := s.notifier.CreateNotification(ctx, NotificationInput{
			RecipientID: p.UserID,
			SenderID:    &senderID,
			Type:        models.NotificationTypeMessage,
			Title:       title,
			Body:        body,
			Data: map[string]string{
				"conversation_id": conv.ConversationID,
				"message_id":      msg.MessageID,
			},
		}, NotificationOptions{SkipPushNotification: skipPush})
		if err != nil {
			s.log.Error("failed to dispatch message notification",
				zap.String("recipient", p.UserID),
				zap.Error(err))
		}
	}
}

// MarkAsRead advances the participant's read cursor to now, or to the given
// message's timestamp. The cursor never regresses, so racing reads from
// multiple devices are safe in either order.
func (s *ChatService) MarkAsRead(ctx context.Context, conversationID, userID string, messageID *string) error {
	if _, err := s.requireActiveParticipant(ctx, conversationID, userID); err != nil {
		return err
	}

	at := s.now()
	if messageID != nil && *messageID != "" {
		msg, err := s.msgs.GetByID(ctx, *messageID)
		if err != nil {
			return err
		}
		if msg == nil || msg.ConversationID != conversationID {
			return apperrors.NotFound("message not found")
		}
		at = msg.CreatedAt
	}

	advanced, err := s.convs.AdvanceReadCursor(ctx, conversationID, userID, at)
	if err != nil {
		return err
	}
	if advanced && s.hub != nil {
		payload := map[string]interface{}{"userId": userID}
		if messageID != nil {
			payload["messageId"] = *messageID
		}
		s.hub.BroadcastToRoom(conversationID, "message:read", payload)
	}
	return nil
}

func (s *ChatService) MuteConversation(ctx context.Context, conversationID, userID string, muted bool) error {
	if _, err := s.requireActiveParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.convs.SetMuted(ctx, conversationID, userID, muted)
}

// EditMessage lets the original sender rewrite content; the edit flag sticks.
func (s *ChatService) EditMessage(ctx context.Context, messageID, userID, content string) (*models.Message, error) {
	if content == "" {
		return nil, apperrors.InvalidArg("content is required")
	}
	msg, err := s.msgs.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.Deleted() {
		return nil, apperrors.NotFound("message not found")
	}
	if !msg.SentBy(userID) {
		return nil, apperrors.Forbidden("only the sender can edit a message")
	}
	if err := s.msgs.UpdateContent(ctx, messageID, content); err != nil {
		return nil, err
	}
	msg.Content = &content
	msg.IsEdited = true
	if s.hub != nil {
		s.hub.BroadcastToRoom(msg.ConversationID, "message:updated", msg)
	}
	return msg, nil
}

// DeleteMessage tombstones a message; only its sender may do so.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID string) error {
	msg, err := s.msgs.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil || msg.Deleted() {
		return apperrors.NotFound("message not found")
	}
	if !msg.SentBy(userID) {
		return apperrors.Forbidden("only the sender can delete a message")
	}
	if err := s.msgs.SoftDelete(ctx, messageID, s.now()); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.BroadcastToRoom(msg.ConversationID, "message:deleted", map[string]string{"messageId": messageID})
	}
	return nil
}

// UnreadSummary is the total plus the per-conversation breakdown.
type UnreadSummary struct {
	Total           int64            `json:"total"`
	PerConversation map[string]int64 `json:"per_conversation"`
}

func (s *ChatService) GetUnreadCount(ctx context.Context, userID string) (*UnreadSummary, error) {
	convs, err := s.convs.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &UnreadSummary{PerConversation: make(map[string]int64, len(convs))}
	for _, conv := range convs {
		part, err := s.convs.Participant(ctx, conv.ConversationID, userID)
		if err != nil {
			return nil, err
		}
		if !part.Active() {
			continue
		}
		count, err := s.msgs.UnreadCount(ctx, conv.ConversationID, userID, part.LastReadAt)
		if err != nil {
			return nil, err
		}
		summary.PerConversation[conv.ConversationID] = count
		summary.Total += count
	}
	return summary, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]ConversationView, error) {
	convs, err := s.convs.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]ConversationView, 0, len(convs))
	for i := range convs {
		view, err := s.buildView(ctx, &convs[i], userID)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *ChatService) GetConversation(ctx context.Context, conversationID, userID string) (*ConversationView, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if _, err := s.requireActiveParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.buildView(ctx, conv, userID)
}

func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID string, limit, offset int) ([]models.Message, error) {
	if _, err := s.requireActiveParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.msgs.ListByConversation(ctx, conversationID, limit, offset)
}

// IsActiveParticipant is used by the gateway to gate room joins.
func (s *ChatService) IsActiveParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	part, err := s.convs.Participant(ctx, conversationID, userID)
	if err != nil {
		return false, err
	}
	return part.Active(), nil
}

func (s *ChatService) requireActiveParticipant(ctx context.Context, conversationID, userID string) (*models.Participant, error) {
	part, err := s.convs.Participant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !part.Active() {
		return nil, apperrors.Forbidden("not a participant of this conversation")
	}
	return part, nil
}

func (s *ChatService) buildView(ctx context.Context, conv *models.Conversation, userID string) (*ConversationView, error) {
	view := &ConversationView{
		ConversationID: conv.ConversationID,
		Type:           conv.Type,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}

	part, err := s.convs.Participant(ctx, conv.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if part != nil {
		view.IsMuted = part.IsMuted
		count, err := s.msgs.UnreadCount(ctx, conv.ConversationID, userID, part.LastReadAt)
		if err != nil {
			return nil, err
		}
		view.UnreadCount = count
	}

	if conv.Type == models.ConversationTypePrivate && conv.ParticipantA != nil && conv.ParticipantB != nil {
		otherID := *conv.ParticipantA
		if otherID == userID {
			otherID = *conv.ParticipantB
		}
		other, err := s.users.GetByID(ctx, otherID)
		if err != nil {
			return nil, err
		}
		view.Participant = other
	}

	return view, nil
}

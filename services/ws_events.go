package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/BekaChkhiro/rideway-api-sub002/pkg/apperrors"
	"github.com/BekaChkhiro/rideway-api-sub002/repositories"
)

// TokenVerifier turns a bearer token into a user id.
type TokenVerifier func(token string) (string, error)

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EventRouter maps event names to handlers over the typed Client. Before a
// successful auth only the auth event is processed; everything else gets an
// UNAUTHENTICATED error frame.
type EventRouter struct {
	hub      *Hub
	chat     *ChatService
	users    repositories.UserRepository
	verify   TokenVerifier
	log      *zap.Logger
	handlers map[string]func(c *Client, data json.RawMessage)
}

func NewEventRouter(hub *Hub, chat *ChatService, users repositories.UserRepository, verify TokenVerifier, log *zap.Logger) *EventRouter {
	r := &EventRouter{
		hub:    hub,
		chat:   chat,
		users:  users,
		verify: verify,
		log:    log,
	}
	r.handlers = map[string]func(c *Client, data json.RawMessage){
		"auth":               r.handleAuth,
		"join:conversation":  r.handleJoin,
		"leave:conversation": r.handleLeave,
		"message:send":       r.handleMessageSend,
		"message:read":       r.handleMessageRead,
		"typing:start":       r.handleTypingStart,
		"typing:stop":        r.handleTypingStop,
		"presence:online":    r.handlePresenceOnline,
		"presence:offline":   r.handlePresenceOffline,
	}
	return r
}

func (r *EventRouter) Dispatch(c *Client, raw []byte) {
	var evt inboundEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		r.emitError(c, apperrors.InvalidArg("malformed event"))
		return
	}

	if !c.authenticated && evt.Event != "auth" {
		r.emitError(c, apperrors.Unauthorized("authenticate first"))
		return
	}

	handler, ok := r.handlers[evt.Event]
	if !ok {
		r.emitError(c, apperrors.InvalidArg("unknown event: "+evt.Event))
		return
	}
	handler(c, evt.Data)
}

func (r *EventRouter) handleAuth(c *Client, data json.RawMessage) {
	if c.authenticated {
		return
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		// the contract also allows a bare token string
		_ = json.Unmarshal(data, &payload.Token)
	}

	userID, err := r.verify(payload.Token)
	if err != nil || userID == "" {
		c.Emit("auth:error", map[string]string{"message": "invalid token"})
		c.closeSend()
		return
	}

	c.userID = userID
	c.authenticated = true
	r.hub.Register(c)

	user := map[string]interface{}{"id": userID}
	if profile, err := r.users.GetByID(context.Background(), userID); err == nil && profile != nil {
		user["username"] = profile.Username
		user["avatar_url"] = profile.AvatarURL
	}
	c.Emit("auth:success", map[string]interface{}{"user": user})
}

type conversationPayload struct {
	ConversationID string `json:"conversationId"`
}

func (r *EventRouter) handleJoin(c *Client, data json.RawMessage) {
	var p conversationPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" {
		r.emitError(c, apperrors.InvalidArg("conversationId is required"))
		return
	}

	ok, err := r.chat.IsActiveParticipant(context.Background(), p.ConversationID, c.userID)
	if err != nil {
		r.emitError(c, err)
		return
	}
	if !ok {
		r.emitError(c, apperrors.Forbidden("not a participant of this conversation"))
		return
	}
	r.hub.JoinRoom(c, p.ConversationID)
}

func (r *EventRouter) handleLeave(c *Client, data json.RawMessage) {
	var p conversationPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" {
		r.emitError(c, apperrors.InvalidArg("conversationId is required"))
		return
	}
	r.hub.LeaveRoom(c, p.ConversationID)
}

func (r *EventRouter) handleMessageSend(c *Client, data json.RawMessage) {
	var p struct {
		ConversationID string  `json:"conversationId"`
		Content        *string `json:"content"`
		Type           string  `json:"type"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" {
		r.emitError(c, apperrors.InvalidArg("conversationId is required"))
		return
	}
	if !r.hub.InRoom(c, p.ConversationID) {
		r.emitError(c, apperrors.Forbidden("join the conversation first"))
		return
	}

	_, err := r.chat.SendMessage(context.Background(), p.ConversationID, c.userID, SendMessageInput{
		Content: p.Content,
		Type:    p.Type,
	})
	if err != nil {
		r.emitError(c, err)
	}
}

func (r *EventRouter) handleMessageRead(c *Client, data json.RawMessage) {
	var p struct {
		ConversationID string `json:"conversationId"`
		MessageID      string `json:"messageId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" {
		r.emitError(c, apperrors.InvalidArg("conversationId is required"))
		return
	}

	var messageID *string
	if p.MessageID != "" {
		messageID = &p.MessageID
	}
	if err := r.chat.MarkAsRead(context.Background(), p.ConversationID, c.userID, messageID); err != nil {
		r.emitError(c, err)
	}
}

func (r *EventRouter) handleTypingStart(c *Client, data json.RawMessage) {
	r.relayTyping(c, data, true)
}

func (r *EventRouter) handleTypingStop(c *Client, data json.RawMessage) {
	r.relayTyping(c, data, false)
}

// relayTyping fans the indicator out to room peers only; nothing persists.
// Start and stop are independent signals; a missing stop is the client's
// timeout problem, never inferred here.
func (r *EventRouter) relayTyping(c *Client, data json.RawMessage, isTyping bool) {
	var p conversationPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" {
		r.emitError(c, apperrors.InvalidArg("conversationId is required"))
		return
	}
	if !r.hub.InRoom(c, p.ConversationID) {
		r.emitError(c, apperrors.Forbidden("join the conversation first"))
		return
	}
	r.hub.BroadcastToRoomExcept(p.ConversationID, c, "typing:update", map[string]interface{}{
		"conversationId": p.ConversationID,
		"userId":         c.userID,
		"isTyping":       isTyping,
	})
}

func (r *EventRouter) handlePresenceOnline(c *Client, _ json.RawMessage) {
	r.hub.SetPresence(c, true)
}

func (r *EventRouter) handlePresenceOffline(c *Client, _ json.RawMessage) {
	r.hub.SetPresence(c, false)
}

func (r *EventRouter) emitError(c *Client, err error) {
	c.Emit("error", map[string]string{
		"message": err.Error(),
		"code":    string(apperrors.CodeOf(err)),
	})
}

package services

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// wsEvent is the wire frame for every server-to-client event.
type wsEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub tracks live connections grouped by user and the per-conversation
// rooms. Presence is a connection counter per user, not a boolean, so a
// user with several devices stays online until the last socket drops.
type Hub struct {
	mu             sync.RWMutex
	clients        map[string]map[*Client]struct{}
	rooms          map[string]map[*Client]struct{}
	sessionOffline map[string]bool

	// appearOffline resolves the user's stored appear-offline preference;
	// it filters what is broadcast, never the internal counter.
	appearOffline func(userID string) bool
	// onUserOffline fires when a user's last connection drops.
	onUserOffline func(userID string)

	log *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:        make(map[string]map[*Client]struct{}),
		rooms:          make(map[string]map[*Client]struct{}),
		sessionOffline: make(map[string]bool),
		log:            log,
	}
}

// SetPresenceResolver wires the appear-offline preference lookup.
func (h *Hub) SetPresenceResolver(fn func(userID string) bool) { h.appearOffline = fn }

// SetOfflineCallback wires last-seen persistence.
func (h *Hub) SetOfflineCallback(fn func(userID string)) { h.onUserOffline = fn }

// Register adds an authenticated client. The user's first connection
// broadcasts user:online unless they appear offline. The preference
// resolver can hit the database, so it runs after the lock is released.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}
	first := len(conns) == 1
	sessionOff := h.sessionOffline[c.userID]
	h.mu.Unlock()

	h.log.Debug("client registered", zap.String("user_id", c.userID))
	if first && h.visible(c.userID, sessionOff) {
		h.broadcastAll("user:online", map[string]string{"userId": c.userID})
	}
}

// Unregister drops a client from every room and from the user's connection
// set. The last connection going away broadcasts user:offline.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = make(map[string]struct{})

	var last, sessionOff bool
	if c.userID != "" {
		if conns, ok := h.clients[c.userID]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.clients, c.userID)
				last = true
				sessionOff = h.sessionOffline[c.userID]
				delete(h.sessionOffline, c.userID)
			}
		}
	}
	h.mu.Unlock()

	c.closeSend()

	if last {
		h.log.Debug("client unregistered", zap.String("user_id", c.userID))
		if h.onUserOffline != nil {
			h.onUserOffline(c.userID)
		}
		if h.visible(c.userID, sessionOff) {
			h.broadcastAll("user:offline", map[string]string{"userId": c.userID})
		}
	}
}

// JoinRoom is idempotent; re-joining is a no-op.
func (h *Hub) JoinRoom(c *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[conversationID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[conversationID] = members
	}
	members[c] = struct{}{}
	c.rooms[conversationID] = struct{}{}
}

func (h *Hub) LeaveRoom(c *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[conversationID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	delete(c.rooms, conversationID)
}

func (h *Hub) InRoom(c *Client, conversationID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[conversationID]
	return ok
}

// BroadcastToRoom sends to every socket joined to the conversation.
func (h *Hub) BroadcastToRoom(conversationID, event string, payload interface{}) {
	h.broadcastToRoom(conversationID, nil, event, payload)
}

// BroadcastToRoomExcept sends to room peers, skipping the originator.
func (h *Hub) BroadcastToRoomExcept(conversationID string, except *Client, event string, payload interface{}) {
	h.broadcastToRoom(conversationID, except, event, payload)
}

func (h *Hub) broadcastToRoom(conversationID string, except *Client, event string, payload interface{}) {
	data := h.encode(event, payload)
	if data == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[conversationID] {
		if c == except {
			continue
		}
		c.enqueue(data)
	}
}

// EmitToUser delivers to every live socket of one user; returns how many
// sockets accepted the frame. Best-effort by design.
func (h *Hub) EmitToUser(userID, event string, payload interface{}) int {
	data := h.encode(event, payload)
	if data == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.clients[userID] {
		if c.enqueue(data) {
			delivered++
		}
	}
	return delivered
}

// IsOnline reports the true connection state (activeConnections > 0),
// ignoring the appear-offline preference.
func (h *Hub) IsOnline(userID string) bool {
	return h.ActiveConnections(userID) > 0
}

func (h *Hub) ActiveConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SetPresence applies the explicit presence:online / presence:offline events
// as a session-scoped override on top of the stored preference.
func (h *Hub) SetPresence(c *Client, online bool) {
	h.mu.Lock()
	h.sessionOffline[c.userID] = !online
	h.mu.Unlock()

	event := "user:online"
	if !online {
		event = "user:offline"
	}
	h.broadcastAll(event, map[string]string{"userId": c.userID})
}

func (h *Hub) broadcastAll(event string, payload interface{}) {
	data := h.encode(event, payload)
	if data == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for c := range conns {
			c.enqueue(data)
		}
	}
}

// visible runs outside the hub lock; callers pass the session override they
// read while they held it.
func (h *Hub) visible(userID string, sessionOff bool) bool {
	if sessionOff {
		return false
	}
	if h.appearOffline != nil && h.appearOffline(userID) {
		return false
	}
	return true
}

func (h *Hub) encode(event string, payload interface{}) []byte {
	data, err := json.Marshal(wsEvent{Event: event, Data: payload})
	if err != nil {
		h.log.Error("failed to encode ws event", zap.String("event", event), zap.Error(err))
		return nil
	}
	return data
}

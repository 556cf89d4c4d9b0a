package services

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
)

type routerFixture struct {
	router *EventRouter
	hub    *Hub
	convs  *fakeConvRepo
	msgs   *fakeMsgRepo
}

// test tokens are "user:<id>"; anything else fails verification
func newRouterFixture(users ...*models.User) *routerFixture {
	f := &routerFixture{
		hub:   NewHub(zap.NewNop()),
		convs: newFakeConvRepo(),
		msgs:  &fakeMsgRepo{},
	}
	chat := NewChatService(f.convs, f.msgs, newFakeUserRepo(users...), newFakeBlockChecker(), f.hub, nil, zap.NewNop())
	verify := func(token string) (string, error) {
		if strings.HasPrefix(token, "user:") {
			return strings.TrimPrefix(token, "user:"), nil
		}
		return "", errors.New("invalid token")
	}
	f.router = NewEventRouter(f.hub, chat, newFakeUserRepo(users...), verify, zap.NewNop())
	return f
}

func (f *routerFixture) seedConversation(id string, userIDs ...string) {
	conv := &models.Conversation{ConversationID: id, Type: models.ConversationTypePrivate}
	var parts []models.Participant
	for _, uid := range userIDs {
		parts = append(parts, models.Participant{ConversationID: id, UserID: uid})
	}
	f.convs.add(conv, parts...)
}

func (f *routerFixture) authedClient(t *testing.T, userID string) *Client {
	t.Helper()
	c := NewClient(f.hub, nil)
	f.router.Dispatch(c, []byte(`{"event":"auth","data":{"token":"user:`+userID+`"}}`))
	require.True(t, c.authenticated)
	drainEvents(t, c)
	return c
}

func TestDispatchRejectsUnauthenticated(t *testing.T) {
	f := newRouterFixture()
	c := NewClient(f.hub, nil)

	f.router.Dispatch(c, []byte(`{"event":"message:send","data":{"conversationId":"conv-1","content":"hi"}}`))

	events := drainEvents(t, c)
	require.Equal(t, []string{"error"}, eventNames(events))
	payload := events[0].Data.(map[string]interface{})
	assert.Equal(t, "UNAUTHENTICATED", payload["code"])
}

func TestAuthSuccess(t *testing.T) {
	f := newRouterFixture(alice())
	c := NewClient(f.hub, nil)

	f.router.Dispatch(c, []byte(`{"event":"auth","data":{"token":"user:alice"}}`))

	assert.True(t, c.authenticated)
	assert.True(t, f.hub.IsOnline("alice"))

	events := drainEvents(t, c)
	names := eventNames(events)
	require.Contains(t, names, "auth:success")
	for _, e := range events {
		if e.Event != "auth:success" {
			continue
		}
		user := e.Data.(map[string]interface{})["user"].(map[string]interface{})
		assert.Equal(t, "alice", user["id"])
		assert.Equal(t, "alice_k", user["username"])
	}
}

func TestAuthAcceptsBareTokenString(t *testing.T) {
	f := newRouterFixture(alice())
	c := NewClient(f.hub, nil)

	f.router.Dispatch(c, []byte(`{"event":"auth","data":"user:alice"}`))
	assert.True(t, c.authenticated)
}

func TestAuthFailureClosesSocket(t *testing.T) {
	f := newRouterFixture()
	c := NewClient(f.hub, nil)

	f.router.Dispatch(c, []byte(`{"event":"auth","data":{"token":"garbage"}}`))

	assert.False(t, c.authenticated)
	events := drainEvents(t, c)
	assert.Contains(t, eventNames(events), "auth:error")
	assert.True(t, c.closed)
}

func TestJoinConversationRequiresMembership(t *testing.T) {
	f := newRouterFixture(alice(), bob())
	f.seedConversation("conv-1", "alice", "bob")

	c := f.authedClient(t, "alice")

	f.router.Dispatch(c, []byte(`{"event":"join:conversation","data":{"conversationId":"conv-1"}}`))
	assert.True(t, f.hub.InRoom(c, "conv-1"))
	assert.Empty(t, drainEvents(t, c))

	f.router.Dispatch(c, []byte(`{"event":"join:conversation","data":{"conversationId":"someone-elses"}}`))
	assert.False(t, f.hub.InRoom(c, "someone-elses"))
	events := drainEvents(t, c)
	require.Equal(t, []string{"error"}, eventNames(events))
	assert.Equal(t, "FORBIDDEN", events[0].Data.(map[string]interface{})["code"])
}

func TestMessageSendRequiresJoinedRoom(t *testing.T) {
	f := newRouterFixture(alice(), bob())
	f.seedConversation("conv-1", "alice", "bob")

	c := f.authedClient(t, "alice")

	// an active participant who never joined the room gets rejected
	f.router.Dispatch(c, []byte(`{"event":"message:send","data":{"conversationId":"conv-1","content":"hi"}}`))

	events := drainEvents(t, c)
	require.Equal(t, []string{"error"}, eventNames(events))
	assert.Equal(t, "FORBIDDEN", events[0].Data.(map[string]interface{})["code"])
	assert.Empty(t, f.msgs.msgs)

	f.router.Dispatch(c, []byte(`{"event":"join:conversation","data":{"conversationId":"conv-1"}}`))
	f.router.Dispatch(c, []byte(`{"event":"message:send","data":{"conversationId":"conv-1","content":"hi"}}`))

	assert.Len(t, f.msgs.msgs, 1)
	assert.Contains(t, eventNames(drainEvents(t, c)), "message:new")
}

func TestTypingRelaysToRoomPeersOnly(t *testing.T) {
	f := newRouterFixture(alice(), bob())
	f.seedConversation("conv-1", "alice", "bob")

	ca := f.authedClient(t, "alice")
	cb := f.authedClient(t, "bob")
	f.router.Dispatch(ca, []byte(`{"event":"join:conversation","data":{"conversationId":"conv-1"}}`))
	f.router.Dispatch(cb, []byte(`{"event":"join:conversation","data":{"conversationId":"conv-1"}}`))
	drainEvents(t, ca)
	drainEvents(t, cb)

	f.router.Dispatch(ca, []byte(`{"event":"typing:start","data":{"conversationId":"conv-1"}}`))

	assert.Empty(t, drainEvents(t, ca))
	events := drainEvents(t, cb)
	require.Equal(t, []string{"typing:update"}, eventNames(events))
	payload := events[0].Data.(map[string]interface{})
	assert.Equal(t, "alice", payload["userId"])
	assert.Equal(t, true, payload["isTyping"])

	f.router.Dispatch(ca, []byte(`{"event":"typing:stop","data":{"conversationId":"conv-1"}}`))
	events = drainEvents(t, cb)
	require.Len(t, events, 1)
	assert.Equal(t, false, events[0].Data.(map[string]interface{})["isTyping"])
}

func TestTypingRequiresJoinedRoom(t *testing.T) {
	f := newRouterFixture(alice(), bob())
	f.seedConversation("conv-1", "alice", "bob")

	c := f.authedClient(t, "alice")
	f.router.Dispatch(c, []byte(`{"event":"typing:start","data":{"conversationId":"conv-1"}}`))

	events := drainEvents(t, c)
	require.Equal(t, []string{"error"}, eventNames(events))
}

func TestDispatchUnknownEvent(t *testing.T) {
	f := newRouterFixture(alice())
	c := f.authedClient(t, "alice")

	f.router.Dispatch(c, []byte(`{"event":"teleport","data":{}}`))

	events := drainEvents(t, c)
	require.Equal(t, []string{"error"}, eventNames(events))
	assert.Equal(t, "INVALID_ARGUMENT", events[0].Data.(map[string]interface{})["code"])
}

func TestDispatchMalformedFrame(t *testing.T) {
	f := newRouterFixture(alice())
	c := f.authedClient(t, "alice")

	f.router.Dispatch(c, []byte(`{not json`))
	events := drainEvents(t, c)
	require.Equal(t, []string{"error"}, eventNames(events))
}

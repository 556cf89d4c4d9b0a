package services

import (
	"context"
	"time"

	"github.com/BekaChkhiro/rideway-api-sub002/models"
	"github.com/BekaChkhiro/rideway-api-sub002/repositories"
)

// In-memory stand-ins for the repositories and gateway surfaces, shared by
// the service tests.

type fakeConvRepo struct {
	convs        map[string]*models.Conversation
	participants map[string]map[string]*models.Participant
	createHook   func(conv *models.Conversation, participants []models.Participant) error
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{
		convs:        make(map[string]*models.Conversation),
		participants: make(map[string]map[string]*models.Participant),
	}
}

func (f *fakeConvRepo) add(conv *models.Conversation, participants ...models.Participant) {
	f.convs[conv.ConversationID] = conv
	if f.participants[conv.ConversationID] == nil {
		f.participants[conv.ConversationID] = make(map[string]*models.Participant)
	}
	for i := range participants {
		p := participants[i]
		f.participants[conv.ConversationID][p.UserID] = &p
	}
}

func (f *fakeConvRepo) FindPrivateBetween(_ context.Context, userA, userB string) (*models.Conversation, error) {
	a, b := models.NormalizePair(userA, userB)
	for _, conv := range f.convs {
		if conv.Type != models.ConversationTypePrivate || conv.ParticipantA == nil || conv.ParticipantB == nil {
			continue
		}
		if *conv.ParticipantA == a && *conv.ParticipantB == b {
			return conv, nil
		}
	}
	return nil, nil
}

func (f *fakeConvRepo) CreatePrivate(_ context.Context, conv *models.Conversation, participants []models.Participant) error {
	if f.createHook != nil {
		hook := f.createHook
		f.createHook = nil
		if err := hook(conv, participants); err != nil {
			return err
		}
	}
	f.add(conv, participants...)
	return nil
}

func (f *fakeConvRepo) GetByID(_ context.Context, conversationID string) (*models.Conversation, error) {
	return f.convs[conversationID], nil
}

func (f *fakeConvRepo) ListForUser(_ context.Context, userID string) ([]models.Conversation, error) {
	var out []models.Conversation
	for id, conv := range f.convs {
		if p, ok := f.participants[id][userID]; ok && p.LeftAt == nil {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeConvRepo) Touch(_ context.Context, conversationID string, at time.Time) error {
	if conv, ok := f.convs[conversationID]; ok {
		conv.UpdatedAt = at
	}
	return nil
}

func (f *fakeConvRepo) Participant(_ context.Context, conversationID, userID string) (*models.Participant, error) {
	return f.participants[conversationID][userID], nil
}

func (f *fakeConvRepo) Participants(_ context.Context, conversationID string) ([]models.Participant, error) {
	var out []models.Participant
	for _, p := range f.participants[conversationID] {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeConvRepo) AdvanceReadCursor(_ context.Context, conversationID, userID string, at time.Time) (bool, error) {
	p, ok := f.participants[conversationID][userID]
	if !ok {
		return false, nil
	}
	if p.LastReadAt != nil && !p.LastReadAt.Before(at) {
		return false, nil
	}
	p.LastReadAt = &at
	return true, nil
}

func (f *fakeConvRepo) SetMuted(_ context.Context, conversationID, userID string, muted bool) error {
	if p, ok := f.participants[conversationID][userID]; ok {
		p.IsMuted = muted
	}
	return nil
}

type fakeMsgRepo struct {
	msgs []*models.Message
}

func (f *fakeMsgRepo) Create(_ context.Context, msg *models.Message) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeMsgRepo) GetByID(_ context.Context, messageID string) (*models.Message, error) {
	for _, m := range f.msgs {
		if m.MessageID == messageID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMsgRepo) ListByConversation(_ context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.msgs {
		if m.ConversationID == conversationID && m.DeletedAt == nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMsgRepo) UpdateContent(_ context.Context, messageID, content string) error {
	for _, m := range f.msgs {
		if m.MessageID == messageID {
			m.Content = &content
			m.IsEdited = true
		}
	}
	return nil
}

func (f *fakeMsgRepo) SoftDelete(_ context.Context, messageID string, at time.Time) error {
	for _, m := range f.msgs {
		if m.MessageID == messageID {
			m.DeletedAt = &at
		}
	}
	return nil
}

func (f *fakeMsgRepo) UnreadCount(_ context.Context, conversationID, userID string, since *time.Time) (int64, error) {
	var count int64
	for _, m := range f.msgs {
		if m.ConversationID != conversationID || m.DeletedAt != nil {
			continue
		}
		if m.SenderID != nil && *m.SenderID == userID {
			continue
		}
		if since != nil && !m.CreatedAt.After(*since) {
			continue
		}
		count++
	}
	return count, nil
}

type fakeUserRepo struct {
	users    map[string]*models.User
	lastSeen map[string]time.Time
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*models.User), lastSeen: make(map[string]time.Time)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	return f.users[userID], nil
}

func (f *fakeUserRepo) TouchLastSeen(_ context.Context, userID string, at time.Time) error {
	f.lastSeen[userID] = at
	return nil
}

type fakeBlockChecker struct {
	blocked map[string]bool
}

func newFakeBlockChecker() *fakeBlockChecker {
	return &fakeBlockChecker{blocked: make(map[string]bool)}
}

func (f *fakeBlockChecker) block(userA, userB string) {
	a, b := models.NormalizePair(userA, userB)
	f.blocked[a+"|"+b] = true
}

func (f *fakeBlockChecker) IsBlocked(_ context.Context, userA, userB string) (bool, error) {
	a, b := models.NormalizePair(userA, userB)
	return f.blocked[a+"|"+b], nil
}

// fakeGateway records broadcasts and emits; it satisfies both SocketEmitter
// and RoomBroadcaster.
type recordedEvent struct {
	target  string
	event   string
	payload interface{}
}

type fakeGateway struct {
	online     map[string]bool
	sockets    int
	broadcasts []recordedEvent
	emits      []recordedEvent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{online: make(map[string]bool), sockets: 1}
}

func (f *fakeGateway) EmitToUser(userID, event string, payload interface{}) int {
	f.emits = append(f.emits, recordedEvent{target: userID, event: event, payload: payload})
	return f.sockets
}

func (f *fakeGateway) IsOnline(userID string) bool {
	return f.online[userID]
}

func (f *fakeGateway) BroadcastToRoom(conversationID, event string, payload interface{}) {
	f.broadcasts = append(f.broadcasts, recordedEvent{target: conversationID, event: event, payload: payload})
}

type dispatchedNotification struct {
	in   NotificationInput
	opts NotificationOptions
}

type fakeNotifier struct {
	dispatched []dispatchedNotification
}

func (f *fakeNotifier) CreateNotification(_ context.Context, in NotificationInput, opts NotificationOptions) (*models.Notification, error) {
	f.dispatched = append(f.dispatched, dispatchedNotification{in: in, opts: opts})
	return &models.Notification{ID: "n-" + in.RecipientID, RecipientID: in.RecipientID}, nil
}

type fakeNotifRepo struct {
	created []*models.Notification
	prefs   map[string]*models.NotificationPreference
	read    map[string]bool
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{
		prefs: make(map[string]*models.NotificationPreference),
		read:  make(map[string]bool),
	}
}

func (f *fakeNotifRepo) Create(_ context.Context, n *models.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotifRepo) ListForUser(_ context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.created {
		if n.RecipientID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotifRepo) MarkRead(_ context.Context, notificationID, userID string, at time.Time) (bool, error) {
	for _, n := range f.created {
		if n.ID == notificationID && n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotifRepo) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	var count int64
	for _, n := range f.created {
		if n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifRepo) UnreadCount(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range f.created {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifRepo) GetPreferences(_ context.Context, userID string) (*models.NotificationPreference, error) {
	if pref, ok := f.prefs[userID]; ok {
		return pref, nil
	}
	return models.DefaultPreferences(userID), nil
}

func (f *fakeNotifRepo) SavePreferences(_ context.Context, pref *models.NotificationPreference) error {
	f.prefs[pref.UserID] = pref
	return nil
}

type fakeQueue struct {
	jobs []PushJob
	full bool
}

func (f *fakeQueue) Enqueue(job PushJob) bool {
	if f.full {
		return false
	}
	f.jobs = append(f.jobs, job)
	return true
}

type fakeTokenRepo struct {
	rows []*models.DeviceToken
}

func (f *fakeTokenRepo) InTx(_ context.Context, fn func(repo repositories.DeviceTokenRepository) error) error {
	return fn(f)
}

func (f *fakeTokenRepo) FindByUserAndToken(_ context.Context, userID, token string) (*models.DeviceToken, error) {
	for _, r := range f.rows {
		if r.UserID == userID && r.Token == token {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeTokenRepo) FindActiveByToken(_ context.Context, token string) ([]models.DeviceToken, error) {
	var out []models.DeviceToken
	for _, r := range f.rows {
		if r.Token == token && r.IsActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) Save(_ context.Context, dt *models.DeviceToken) error {
	for i, r := range f.rows {
		if r.ID == dt.ID {
			f.rows[i] = dt
			return nil
		}
	}
	f.rows = append(f.rows, dt)
	return nil
}

func (f *fakeTokenRepo) DeactivateOthersForDevice(_ context.Context, userID, deviceID, keepID string) (int64, error) {
	var count int64
	for _, r := range f.rows {
		if r.UserID == userID && r.DeviceID != nil && *r.DeviceID == deviceID && r.ID != keepID && r.IsActive {
			r.IsActive = false
			count++
		}
	}
	return count, nil
}

func (f *fakeTokenRepo) DeactivateByID(_ context.Context, id string) error {
	for _, r := range f.rows {
		if r.ID == id {
			r.IsActive = false
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeactivateByUserAndToken(_ context.Context, userID, token string) (bool, error) {
	for _, r := range f.rows {
		if r.UserID == userID && r.Token == token && r.IsActive {
			r.IsActive = false
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenRepo) DeactivateAllForUser(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, r := range f.rows {
		if r.UserID == userID && r.IsActive {
			r.IsActive = false
			count++
		}
	}
	return count, nil
}

func (f *fakeTokenRepo) DeactivateByTokens(_ context.Context, tokens []string) (int64, error) {
	var count int64
	for _, token := range tokens {
		for _, r := range f.rows {
			if r.Token == token && r.IsActive {
				r.IsActive = false
				count++
			}
		}
	}
	return count, nil
}

func (f *fakeTokenRepo) ActiveForUser(_ context.Context, userID string) ([]models.DeviceToken, error) {
	var out []models.DeviceToken
	for _, r := range f.rows {
		if r.UserID == userID && r.IsActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*models.DeviceToken
	var count int64
	for _, r := range f.rows {
		if !r.IsActive && r.LastUsedAt.Before(cutoff) {
			count++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return count, nil
}

type fakeProvider struct {
	calls     int
	gotTokens []string
	gotMsg    PushMessage
	result    *ProviderResult
	err       error
}

func (f *fakeProvider) Send(_ context.Context, tokens []string, msg PushMessage) (*ProviderResult, error) {
	f.calls++
	f.gotTokens = tokens
	f.gotMsg = msg
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &ProviderResult{SuccessCount: len(tokens), InvalidTokens: []string{}}, nil
}

package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/db"
	"github.com/arjin21/omerpubgbagimliligi/internal/directory"
	"github.com/arjin21/omerpubgbagimliligi/internal/media"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// -----------------------------------------------------------------------------
// In-memory conversation store
// -----------------------------------------------------------------------------

type fakeConversationRepo struct {
	mu    sync.Mutex
	convs map[string]*model.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[string]*model.Conversation)}
}

func (f *fakeConversationRepo) Insert(ctx context.Context, conv *model.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conv.ID.IsZero() {
		conv.ID = primitive.NewObjectID()
	}
	cp := *conv
	f.convs[conv.ID.Hex()] = &cp
	return conv.ID.Hex(), nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.convs[conversationID]
	if !ok {
		return nil, nil
	}
	cp := *conv
	return &cp, nil
}

func (f *fakeConversationRepo) FindDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, conv := range f.convs {
		if conv.IsGroup || len(conv.ParticipantIds) != 2 {
			continue
		}
		ids := map[string]bool{conv.ParticipantIds[0]: true, conv.ParticipantIds[1]: true}
		if ids[userA] && ids[userB] {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeConversationRepo) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Conversation
	for _, conv := range f.convs {
		if conv.HasParticipant(userID) && !conv.IsDeletedFor(userID) {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (f *fakeConversationRepo) SetLastMessage(ctx context.Context, conversationID string, lm model.LastMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conv, ok := f.convs[conversationID]; ok {
		conv.LastMessage = &lm
		conv.LastMessageAt = lm.SentAt
		conv.UpdatedAt = lm.SentAt
	}
	return nil
}

func (f *fakeConversationRepo) IncrementUnread(ctx context.Context, conversationID, participantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conv, ok := f.convs[conversationID]; ok {
		state := conv.UnreadCounts[participantID]
		state.Count++
		conv.UnreadCounts[participantID] = state
	}
	return nil
}

func (f *fakeConversationRepo) ResetUnread(ctx context.Context, conversationID, participantID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conv, ok := f.convs[conversationID]; ok {
		conv.UnreadCounts[participantID] = model.UnreadState{LastReadAt: &at}
	}
	return nil
}

func (f *fakeConversationRepo) SetParticipantSetting(ctx context.Context, conversationID, participantID, setting string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.convs[conversationID]
	if !ok {
		return nil
	}
	s := conv.Settings[participantID]
	switch setting {
	case "muted":
		s.Muted = value
	case "pinned":
		s.Pinned = value
	case "archived":
		s.Archived = value
	}
	conv.Settings[participantID] = s
	return nil
}

func (f *fakeConversationRepo) AddParticipant(ctx context.Context, conversationID string, p model.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conv, ok := f.convs[conversationID]; ok {
		conv.Participants = append(conv.Participants, p)
		conv.ParticipantIds = append(conv.ParticipantIds, p.UserID)
		conv.UnreadCounts[p.UserID] = model.UnreadState{}
		conv.Settings[p.UserID] = model.ParticipantSettings{Notifications: true}
	}
	return nil
}

func (f *fakeConversationRepo) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.convs[conversationID]
	if !ok {
		return nil
	}
	kept := conv.Participants[:0]
	for _, p := range conv.Participants {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	conv.Participants = kept

	ids := conv.ParticipantIds[:0]
	for _, id := range conv.ParticipantIds {
		if id != userID {
			ids = append(ids, id)
		}
	}
	conv.ParticipantIds = ids

	delete(conv.UnreadCounts, userID)
	delete(conv.Settings, userID)
	return nil
}

func (f *fakeConversationRepo) MarkDeletedFor(ctx context.Context, conversationID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conv, ok := f.convs[conversationID]; ok && !conv.IsDeletedFor(userID) {
		conv.DeletedBy = append(conv.DeletedBy, userID)
	}
	return nil
}

// -----------------------------------------------------------------------------
// In-memory message store
// -----------------------------------------------------------------------------

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs map[string]*model.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{msgs: make(map[string]*model.Message)}
}

func (f *fakeMessageRepo) Insert(ctx context.Context, msg *model.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	cp := *msg
	f.msgs[msg.ID.Hex()] = &cp
	return msg.ID.Hex(), nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.msgs[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (f *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const pageSize = 15

	var all []model.Message
	for _, msg := range f.msgs {
		if msg.ConversationID.Hex() == conversationID && !msg.IsDeleted {
			all = append(all, *msg)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	return &db.PaginatedResult[model.Message]{
		Data:       all[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (f *fakeMessageRepo) MarkDelivered(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		if msg, ok := f.msgs[id.Hex()]; ok && !msg.IsDelivered {
			msg.IsDelivered = true
			t := at
			msg.DeliveredAt = &t
		}
	}
	return nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := f.msgs[id]; ok {
		t := at
		msg.IsRead = true
		msg.ReadAt = &t
		msg.IsDelivered = true
		if msg.DeliveredAt == nil {
			msg.DeliveredAt = &t
		}
	}
	return nil
}

func (f *fakeMessageRepo) ApplyEdit(ctx context.Context, id string, newText string, prior model.EditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := f.msgs[id]; ok {
		msg.Content.Text = newText
		msg.IsEdited = true
		msg.EditHistory = append(msg.EditHistory, prior)
	}
	return nil
}

func (f *fakeMessageRepo) SoftDelete(ctx context.Context, id string, by string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := f.msgs[id]; ok {
		t := at
		msg.IsDeleted = true
		msg.DeletedAt = &t
		msg.DeletedBy = by
	}
	return nil
}

func (f *fakeMessageRepo) SetReaction(ctx context.Context, id string, userID string, r model.Reaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := f.msgs[id]; ok {
		if msg.Reactions == nil {
			msg.Reactions = make(map[string]model.Reaction)
		}
		msg.Reactions[userID] = r
	}
	return nil
}

func (f *fakeMessageRepo) RemoveReaction(ctx context.Context, id string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := f.msgs[id]; ok {
		delete(msg.Reactions, userID)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Fake user directory
// -----------------------------------------------------------------------------

type fakeDirectory struct {
	users   map[string]*model.User
	blocked map[string]bool
	follows map[string]bool
}

func newFakeDirectory(userIDs ...string) *fakeDirectory {
	d := &fakeDirectory{
		users:   make(map[string]*model.User),
		blocked: make(map[string]bool),
		follows: make(map[string]bool),
	}
	for _, id := range userIDs {
		d.users[id] = &model.User{
			UserID:           id,
			Username:         id,
			IsActive:         true,
			MessagingPrivacy: model.PrivacyEveryone,
		}
	}
	return d
}

func (d *fakeDirectory) GetUser(ctx context.Context, userID string) (*model.User, error) {
	u, ok := d.users[userID]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return u, nil
}

func (d *fakeDirectory) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	return d.blocked[userA+"|"+userB], nil
}

func (d *fakeDirectory) IsFollowing(ctx context.Context, follower, followee string) (bool, error) {
	return d.follows[follower+"|"+followee], nil
}

// -----------------------------------------------------------------------------
// Fake fan-out collaborators
// -----------------------------------------------------------------------------

type notifiedEvent struct {
	UserID  string
	Event   string
	Payload interface{}
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifiedEvent
}

func (n *fakeNotifier) Notify(userID string, eventName string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifiedEvent{UserID: userID, Event: eventName, Payload: payload})
}

func (n *fakeNotifier) eventsFor(userID string) []notifiedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []notifiedEvent
	for _, ev := range n.events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	return out
}

type publishedRecord struct {
	Key   string
	Value []byte
}

type fakePublisher struct {
	mu      sync.Mutex
	records []publishedRecord
}

func (p *fakePublisher) Publish(ctx context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, publishedRecord{Key: key, Value: value})
	return nil
}

type fakeMediaStore struct {
	attachments map[string]*media.Attachment
}

func (m *fakeMediaStore) Resolve(ctx context.Context, mediaID string) (*media.Attachment, error) {
	att, ok := m.attachments[mediaID]
	if !ok {
		return nil, media.ErrNotFound
	}
	return att, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/directory"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/arjin21/omerpubgbagimliligi/internal/repo"
	"go.uber.org/zap"
)

// DefaultMaxParticipants bounds group conversation size.
const DefaultMaxParticipants = 50

// Per-participant setting names accepted by the settings toggles.
const (
	SettingMuted    = "muted"
	SettingPinned   = "pinned"
	SettingArchived = "archived"
)

// ConversationService orchestrates conversation creation and lookup,
// membership, per-participant settings and unread bookkeeping.
type ConversationService interface {
	FindOrCreateDirect(ctx context.Context, userA, userB string) (*model.Conversation, error)
	CreateGroup(ctx context.Context, creator string, participantIds []string, info model.GroupInfo) (*model.Conversation, error)
	Get(ctx context.Context, conversationID, requester string) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, requester, userID string) error
	RemoveParticipant(ctx context.Context, conversationID, requester, userID string) error
	UpdateLastMessage(ctx context.Context, conversationID string, lm model.LastMessage)
	IncrementUnread(ctx context.Context, conversationID, participantID, authorID string) error
	MarkRead(ctx context.Context, conversationID, participantID string) error
	SetSetting(ctx context.Context, conversationID, userID, setting string, value bool) error
	DeleteForUser(ctx context.Context, conversationID, userID string) error
}

type conversationService struct {
	convRepo        repo.ConversationRepository
	users           directory.UserDirectory
	maxParticipants int
	logger          *zap.Logger
}

func NewConversationService(convRepo repo.ConversationRepository, users directory.UserDirectory, maxParticipants int, logger *zap.Logger) ConversationService {
	if maxParticipants <= 0 {
		maxParticipants = DefaultMaxParticipants
	}
	return &conversationService{
		convRepo:        convRepo,
		users:           users,
		maxParticipants: maxParticipants,
		logger:          logger,
	}
}

// FindOrCreateDirect returns the existing direct conversation between the
// pair or creates one. Idempotent: calling it twice yields the same id.
func (s *conversationService) FindOrCreateDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	if userA == userB {
		return nil, ErrSelfConversation
	}

	recipient, err := s.users.GetUser(ctx, userB)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}

	blocked, err := s.users.IsBlocked(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("block check: %w", err)
	}
	if blocked {
		return nil, ErrBlocked
	}

	if recipient.MessagingPrivacy == model.PrivacyFollowers {
		follows, err := s.users.IsFollowing(ctx, userA, userB)
		if err != nil {
			return nil, fmt.Errorf("follow check: %w", err)
		}
		if !follows {
			return nil, ErrPrivacyDenied
		}
	}

	existing, err := s.convRepo.FindDirect(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	conv := &model.Conversation{
		IsGroup: false,
		Participants: []model.Participant{
			{UserID: userA, Role: model.RoleMember, JoinedAt: now, IsActive: true},
			{UserID: userB, Role: model.RoleMember, JoinedAt: now, IsActive: true},
		},
		ParticipantIds: []string{userA, userB},
		CreatedBy:      userA,
		CreatedAt:      now,
		UpdatedAt:      now,
		UnreadCounts: map[string]model.UnreadState{
			userA: {},
			userB: {},
		},
		Settings: map[string]model.ParticipantSettings{
			userA: {Notifications: true},
			userB: {Notifications: true},
		},
	}

	if _, err := s.convRepo.Insert(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("direct conversation created",
		zap.String("conversation_id", conv.ID.Hex()),
		zap.String("user_a", userA),
		zap.String("user_b", userB),
	)
	return conv, nil
}

// CreateGroup creates a group conversation with the creator as sole admin.
func (s *conversationService) CreateGroup(ctx context.Context, creator string, participantIds []string, info model.GroupInfo) (*model.Conversation, error) {
	if info.Name == "" {
		return nil, ErrMissingGroupName
	}

	// Dedupe and drop the creator from the invite list.
	members := make([]string, 0, len(participantIds))
	seen := map[string]struct{}{creator: {}}
	for _, id := range participantIds {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}

	if len(members)+1 > s.maxParticipants {
		return nil, ErrTooManyParticipants
	}

	now := time.Now().UTC()
	info.CreatedBy = creator
	info.Admins = []string{creator}

	conv := &model.Conversation{
		IsGroup:        true,
		GroupInfo:      &info,
		CreatedBy:      creator,
		CreatedAt:      now,
		UpdatedAt:      now,
		ParticipantIds: append([]string{creator}, members...),
		UnreadCounts:   make(map[string]model.UnreadState, len(members)+1),
		Settings:       make(map[string]model.ParticipantSettings, len(members)+1),
	}

	conv.Participants = append(conv.Participants, model.Participant{
		UserID: creator, Role: model.RoleAdmin, JoinedAt: now, IsActive: true,
	})
	for _, id := range members {
		conv.Participants = append(conv.Participants, model.Participant{
			UserID: id, Role: model.RoleMember, JoinedAt: now, IsActive: true,
		})
	}
	for _, id := range conv.ParticipantIds {
		conv.UnreadCounts[id] = model.UnreadState{}
		conv.Settings[id] = model.ParticipantSettings{Notifications: true}
	}

	if _, err := s.convRepo.Insert(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("group conversation created",
		zap.String("conversation_id", conv.ID.Hex()),
		zap.String("creator", creator),
		zap.Int("participants", len(conv.Participants)),
	)
	return conv, nil
}

// Get resolves a conversation for a requester who must be a participant.
func (s *conversationService) Get(ctx context.Context, conversationID, requester string) (*model.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(requester) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *conversationService) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	return s.convRepo.ListForUser(ctx, userID)
}

// AddParticipant adds a user to a group. Admin only; the unread/settings
// entries are created atomically with the membership change.
func (s *conversationService) AddParticipant(ctx context.Context, conversationID, requester, userID string) error {
	conv, err := s.Get(ctx, conversationID, requester)
	if err != nil {
		return err
	}
	if !conv.IsGroup || !conv.IsAdmin(requester) {
		return ErrNotAdmin
	}
	if conv.HasParticipant(userID) {
		return nil
	}
	if len(conv.Participants)+1 > s.maxParticipants {
		return ErrTooManyParticipants
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("resolve user: %w", err)
	}

	return s.convRepo.AddParticipant(ctx, conversationID, model.Participant{
		UserID:   userID,
		Role:     model.RoleMember,
		JoinedAt: time.Now().UTC(),
		IsActive: true,
	})
}

// RemoveParticipant removes a user from a group. Admins may remove anyone;
// a member may remove only themselves (leaving).
func (s *conversationService) RemoveParticipant(ctx context.Context, conversationID, requester, userID string) error {
	conv, err := s.Get(ctx, conversationID, requester)
	if err != nil {
		return err
	}
	if !conv.IsGroup {
		return ErrNotAdmin
	}
	if requester != userID && !conv.IsAdmin(requester) {
		return ErrNotAdmin
	}
	if !conv.HasParticipant(userID) {
		return nil
	}

	return s.convRepo.RemoveParticipant(ctx, conversationID, userID)
}

// UpdateLastMessage sets the last-message pointer. A conversation deleted
// underneath a racing send is tolerated, not fatal.
func (s *conversationService) UpdateLastMessage(ctx context.Context, conversationID string, lm model.LastMessage) {
	if err := s.convRepo.SetLastMessage(ctx, conversationID, lm); err != nil {
		s.logger.Warn("last message update skipped",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}

// IncrementUnread bumps the participant's counter unless the participant
// authored the message.
func (s *conversationService) IncrementUnread(ctx context.Context, conversationID, participantID, authorID string) error {
	if participantID == authorID {
		return nil
	}
	return s.convRepo.IncrementUnread(ctx, conversationID, participantID)
}

// MarkRead zeroes the participant's counter and stamps lastReadAt. Used
// both for conversation open and explicit mark-all-read.
func (s *conversationService) MarkRead(ctx context.Context, conversationID, participantID string) error {
	if _, err := s.Get(ctx, conversationID, participantID); err != nil {
		return err
	}
	return s.convRepo.ResetUnread(ctx, conversationID, participantID, time.Now().UTC())
}

// SetSetting toggles one of the caller's own per-participant settings.
// Idempotent: setting the current value again is a no-op at the store.
func (s *conversationService) SetSetting(ctx context.Context, conversationID, userID, setting string, value bool) error {
	switch setting {
	case SettingMuted, SettingPinned, SettingArchived:
	default:
		return fmt.Errorf("unknown setting %q", setting)
	}

	if _, err := s.Get(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.convRepo.SetParticipantSetting(ctx, conversationID, userID, setting, value)
}

// DeleteForUser removes the conversation from the caller's view only.
func (s *conversationService) DeleteForUser(ctx context.Context, conversationID, userID string) error {
	if _, err := s.Get(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.convRepo.MarkDeletedFor(ctx, conversationID, userID)
}

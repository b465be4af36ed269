package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/event"
	"github.com/arjin21/omerpubgbagimliligi/internal/media"
	"github.com/arjin21/omerpubgbagimliligi/internal/metrics"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/arjin21/omerpubgbagimliligi/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EditWindow bounds how long after creation a message may be edited.
const EditWindow = 15 * time.Minute

// Notifier is the push sink for realtime events. Delivery is best-effort;
// failures never surface to the originating call.
type Notifier interface {
	Notify(userID string, eventName string, payload interface{})
}

// EventPublisher bridges message events to the notification pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// SendInput carries an outbound message request.
type SendInput struct {
	ConversationID string
	Sender         string
	Content        model.Content
	ReplyTo        string
}

// MessageService validates and persists outbound messages and manages
// their lifecycle.
type MessageService interface {
	Send(ctx context.Context, in SendInput) (*model.Message, error)
	GetByID(ctx context.Context, messageID, requester string) (*model.Message, error)
	ListByConversation(ctx context.Context, conversationID, requester string, page int64) ([]model.Message, int64, error)
	MarkDelivered(ctx context.Context, messageID string) error
	MarkRead(ctx context.Context, messageID, reader string) error
	Edit(ctx context.Context, messageID, editor, newText string) (*model.Message, error)
	SoftDelete(ctx context.Context, messageID, requester string) error
	React(ctx context.Context, messageID, userID, emoji string) error
	Unreact(ctx context.Context, messageID, userID string) error
}

type messageService struct {
	msgRepo   repo.MessageRepository
	convs     ConversationService
	mediaSt   media.Store    // nil when unconfigured
	notifier  Notifier       // nil-safe, fire and forget
	publisher EventPublisher // nil when unconfigured
	logger    *zap.Logger
}

func NewMessageService(msgRepo repo.MessageRepository, convs ConversationService, mediaSt media.Store, notifier Notifier, publisher EventPublisher, logger *zap.Logger) MessageService {
	return &messageService{
		msgRepo:   msgRepo,
		convs:     convs,
		mediaSt:   mediaSt,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// Send
// -----------------------------------------------------------------------------

// Send validates, persists and fans out one outbound message. The message
// either fully completes (persist + counters + notify attempt) or fails
// before persisting.
func (s *messageService) Send(ctx context.Context, in SendInput) (*model.Message, error) {
	conv, err := s.convs.Get(ctx, in.ConversationID, in.Sender)
	if err != nil {
		return nil, err
	}

	if conv.SettingsFor(in.Sender).Muted {
		return nil, ErrMutedConversation
	}

	if err := ValidateContent(in.Content); err != nil {
		return nil, err
	}

	if err := s.resolveAttachment(ctx, &in.Content); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       in.Sender,
		Content:        in.Content,
		CreatedAt:      now,
	}

	if !conv.IsGroup {
		others := conv.OtherParticipantIds(in.Sender)
		if len(others) == 1 {
			msg.RecipientID = others[0]
		}
	}

	if in.Content.Type == model.ContentText {
		msg.Mentions = ExtractMentions(in.Content.Text)
	}

	if in.ReplyTo != "" {
		if err := s.attachReply(ctx, msg, in.ReplyTo); err != nil {
			return nil, err
		}
	}

	if _, err := s.msgRepo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	s.convs.UpdateLastMessage(ctx, in.ConversationID, model.LastMessage{
		MessageID: msg.ID.Hex(),
		Preview:   msg.Preview(),
		SenderID:  in.Sender,
		SentAt:    now,
	})

	others := conv.OtherParticipantIds(in.Sender)
	for _, participantID := range others {
		if err := s.convs.IncrementUnread(ctx, in.ConversationID, participantID, in.Sender); err != nil {
			s.logger.Warn("unread increment failed",
				zap.String("conversation_id", in.ConversationID),
				zap.String("participant_id", participantID),
				zap.Error(err),
			)
		}
	}

	s.notifyAll(others, event.EventReceiveMessage, msg)
	s.publish(ctx, msg)
	metrics.MessagesSent.Inc()

	return msg, nil
}

func (s *messageService) resolveAttachment(ctx context.Context, c *model.Content) error {
	if s.mediaSt == nil || c.Media == nil || c.Media.MediaID == "" || c.Media.URL != "" {
		return nil
	}

	att, err := s.mediaSt.Resolve(ctx, c.Media.MediaID)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return ErrEmptyContent
		}
		return err
	}

	c.Media.URL = att.URL
	c.Media.MimeType = att.MimeType
	c.Media.Size = att.Size
	c.Media.FileName = att.FileName
	return nil
}

// attachReply links msg to its reply target, which must live in the same
// conversation. Thread membership follows the target's thread, or starts
// one rooted at the target.
func (s *messageService) attachReply(ctx context.Context, msg *model.Message, replyTo string) error {
	target, err := s.msgRepo.GetByID(ctx, replyTo)
	if err != nil {
		return err
	}
	if target == nil || target.IsDeleted {
		return ErrMessageNotFound
	}
	if target.ConversationID != msg.ConversationID {
		return ErrReplyCrossConversation
	}

	msg.ReplyTo = &target.ID
	if target.ThreadID != nil {
		msg.ThreadID = target.ThreadID
	} else {
		msg.ThreadID = &target.ID
	}
	return nil
}

// -----------------------------------------------------------------------------
// Lookups
// -----------------------------------------------------------------------------

// GetByID resolves a single message for a participant. Soft-deleted
// messages are still resolvable here for audit purposes.
func (s *messageService) GetByID(ctx context.Context, messageID, requester string) (*model.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if _, err := s.convs.Get(ctx, msg.ConversationID.Hex(), requester); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListByConversation returns one page of messages in ascending order for
// display. Pagination is by descending creation time internally, then
// reversed. Messages directed at the requester are marked delivered as a
// side effect.
func (s *messageService) ListByConversation(ctx context.Context, conversationID, requester string, page int64) ([]model.Message, int64, error) {
	if _, err := s.convs.Get(ctx, conversationID, requester); err != nil {
		return nil, 0, err
	}

	result, err := s.msgRepo.ListByConversation(ctx, conversationID, page)
	if err != nil {
		return nil, 0, err
	}
	if result == nil {
		return nil, 0, nil
	}

	now := time.Now().UTC()
	var undelivered []primitive.ObjectID
	for i := range result.Data {
		m := &result.Data[i]
		if m.SenderID != requester && !m.IsDelivered {
			undelivered = append(undelivered, m.ID)
			m.IsDelivered = true
			m.DeliveredAt = &now
		}
	}
	if len(undelivered) > 0 {
		if err := s.msgRepo.MarkDelivered(ctx, undelivered, now); err != nil {
			s.logger.Warn("delivery marking failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
	}

	return Reverse(result.Data), result.TotalPages, nil
}

// -----------------------------------------------------------------------------
// Lifecycle transitions
// -----------------------------------------------------------------------------

// MarkDelivered is a one-way transition; repeated calls are no-ops.
func (s *messageService) MarkDelivered(ctx context.Context, messageID string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.IsDelivered {
		return nil
	}
	return s.msgRepo.MarkDelivered(ctx, []primitive.ObjectID{msg.ID}, time.Now().UTC())
}

// MarkRead is a one-way transition; repeated calls are no-ops. The sender
// gets a best-effort read receipt.
func (s *messageService) MarkRead(ctx context.Context, messageID, reader string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.IsRead {
		return nil
	}

	now := time.Now().UTC()
	if err := s.msgRepo.MarkRead(ctx, messageID, now); err != nil {
		return err
	}

	s.notifyAll([]string{msg.SenderID}, event.EventMessageSeen, model.MessageSeen{
		MessageID:      messageID,
		ConversationID: msg.ConversationID.Hex(),
		SeenBy:         reader,
		SeenAt:         now.Format(time.RFC3339),
	})
	return nil
}

// Edit updates a text message's body within the edit window, appending the
// prior text to the edit history. Sender only, text only, server-enforced.
func (s *messageService) Edit(ctx context.Context, messageID, editor, newText string) (*model.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.IsDeleted {
		return nil, ErrMessageDeleted
	}
	if msg.SenderID != editor {
		return nil, ErrNotAuthor
	}
	if msg.Content.Type != model.ContentText {
		return nil, ErrUnsupportedContentType
	}
	if time.Since(msg.CreatedAt) > EditWindow {
		return nil, ErrEditWindowExpired
	}
	if strings.TrimSpace(newText) == "" {
		return nil, ErrEmptyContent
	}
	if len(newText) > model.MaxTextLength {
		return nil, ErrTextTooLong
	}

	now := time.Now().UTC()
	prior := model.EditRecord{Text: msg.Content.Text, EditedAt: now}
	if err := s.msgRepo.ApplyEdit(ctx, messageID, newText, prior); err != nil {
		return nil, err
	}

	msg.Content.Text = newText
	msg.IsEdited = true
	msg.EditHistory = append(msg.EditHistory, prior)
	msg.Mentions = ExtractMentions(newText)
	return msg, nil
}

// SoftDelete flags the message deleted. The row remains queryable for
// audit but is excluded from default listings. Deleted is terminal.
func (s *messageService) SoftDelete(ctx context.Context, messageID, requester string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != requester {
		return ErrNotAuthor
	}
	if msg.IsDeleted {
		return nil
	}
	return s.msgRepo.SoftDelete(ctx, messageID, requester, time.Now().UTC())
}

// React records the user's reaction, replacing any prior one from the same
// user.
func (s *messageService) React(ctx context.Context, messageID, userID, emoji string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.IsDeleted {
		return ErrMessageDeleted
	}
	if _, err := s.convs.Get(ctx, msg.ConversationID.Hex(), userID); err != nil {
		return err
	}

	return s.msgRepo.SetReaction(ctx, messageID, userID, model.Reaction{
		Emoji:   emoji,
		AddedAt: time.Now().UTC(),
	})
}

// Unreact removes the user's reaction; a no-op if none exists.
func (s *messageService) Unreact(ctx context.Context, messageID, userID string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.IsDeleted {
		return ErrMessageDeleted
	}
	if _, ok := msg.Reactions[userID]; !ok {
		return nil
	}
	return s.msgRepo.RemoveReaction(ctx, messageID, userID)
}

// -----------------------------------------------------------------------------
// Fan-out
// -----------------------------------------------------------------------------

// notifyAll pushes an event to each recipient. Notification is fire and
// forget: a panicking or failing push must never fail the originating call.
func (s *messageService) notifyAll(userIDs []string, eventName string, payload interface{}) {
	if s.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("realtime notify panicked", zap.Any("panic", r))
		}
	}()

	for _, id := range userIDs {
		s.notifier.Notify(id, eventName, payload)
	}
}

func (s *messageService) publish(ctx context.Context, msg *model.Message) {
	if s.publisher == nil {
		return
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, msg.ConversationID.Hex(), b); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("message_id", msg.ID.Hex()),
			zap.Error(err),
		)
	}
}

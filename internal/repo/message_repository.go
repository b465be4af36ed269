package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/db"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidMessage        = errors.New("invalid message: message cannot be nil")
	ErrInvalidConversationID = errors.New("invalid conversation ID: cannot be empty")
	ErrOperationTimeout      = errors.New("operation timeout exceeded")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second

	messagePageSize = 15
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (string, error)
	GetByID(ctx context.Context, id string) (*model.Message, error)
	ListByConversation(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error)
	MarkDelivered(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	MarkRead(ctx context.Context, id string, at time.Time) error
	ApplyEdit(ctx context.Context, id string, newText string, prior model.EditRecord) error
	SoftDelete(ctx context.Context, id string, by string, at time.Time) error
	SetReaction(ctx context.Context, id string, userID string, r model.Reaction) error
	RemoveReaction(ctx context.Context, id string, userID string) error
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// Insert
// -----------------------------------------------------------------------------

func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (string, error) {
	if msg == nil {
		return "", ErrInvalidMessage
	}
	if msg.ConversationID.IsZero() {
		return "", ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return "", err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			insertedID := ""
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				insertedID = oid.Hex()
				msg.ID = oid
			}

			m.logger.Info("message inserted",
				zap.String("inserted_id", insertedID),
				zap.String("conversation_id", msg.ConversationID.Hex()),
				zap.Int("attempt", attempt+1),
			)
			return insertedID, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("conversation_id", msg.ConversationID.Hex()),
	)

	return "", fmt.Errorf("insert message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// Lookups
// -----------------------------------------------------------------------------

// GetByID resolves a message by id, including soft-deleted rows. Returns
// (nil, nil) when no document matches.
func (m *messageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message failed: %w", err)
	}
	return msg, nil
}

// ListByConversation pages through a conversation's messages, newest first,
// excluding soft-deleted rows.
func (m *messageRepository) ListByConversation(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("conversation_id", conversationID).
		Ne("is_deleted", true).
		Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			m.logger.Warn("retrying message list",
				zap.String("conversation_id", conversationID),
				zap.Int("attempt", attempt+1),
			)
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: messagePageSize,
			SortBy:   "created_at",
			SortDesc: true,
		})

		if err == nil {
			m.logger.Debug("messages listed",
				zap.String("conversation_id", conversationID),
				zap.Int("count", len(result.Data)),
				zap.Int64("total", result.Total),
			)
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr, conversationID)
}

// -----------------------------------------------------------------------------
// Lifecycle mutations
// -----------------------------------------------------------------------------

// MarkDelivered flips the delivery flag on the given messages. Already
// delivered messages are excluded by the filter, keeping the transition
// one-way and the call idempotent.
func (m *messageRepository) MarkDelivered(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		In("_id", ids).
		Ne("is_delivered", true).
		Build()

	_, err := m.mongoRepo.UpdateManyRaw(ctx, filter, bson.M{
		"$set": bson.M{"is_delivered": true, "delivered_at": at},
	})
	if err != nil {
		return fmt.Errorf("mark delivered failed: %w", err)
	}
	return nil
}

// MarkRead flips the read flag, one-way. A read message is implicitly
// delivered as well.
func (m *messageRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid message ID format: %w", err)
	}

	filter := db.NewFilter().Eq("_id", oid).Ne("is_read", true).Build()
	_, err = m.mongoRepo.UpdateRaw(ctx, filter, bson.M{
		"$set": bson.M{
			"is_read": true, "read_at": at,
			"is_delivered": true, "delivered_at": at,
		},
	})
	if err != nil {
		return fmt.Errorf("mark read failed: %w", err)
	}
	return nil
}

// ApplyEdit replaces the text body and appends the prior text to the edit
// history in one update.
func (m *messageRepository) ApplyEdit(ctx context.Context, id string, newText string, prior model.EditRecord) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid message ID format: %w", err)
	}

	_, err = m.mongoRepo.UpdateRaw(ctx, bson.M{"_id": oid}, bson.M{
		"$set":  bson.M{"content.text": newText, "is_edited": true},
		"$push": bson.M{"edit_history": prior},
	})
	if err != nil {
		return fmt.Errorf("apply edit failed: %w", err)
	}

	m.logger.Info("message edited", zap.String("message_id", id))
	return nil
}

func (m *messageRepository) SoftDelete(ctx context.Context, id string, by string, at time.Time) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := m.mongoRepo.UpdateByID(ctx, id, bson.M{
		"is_deleted": true,
		"deleted_at": at,
		"deleted_by": by,
	})
	if err != nil {
		return fmt.Errorf("soft delete failed: %w", err)
	}

	m.logger.Info("message soft-deleted",
		zap.String("message_id", id),
		zap.String("deleted_by", by),
	)
	return nil
}

// SetReaction upserts the user's reaction entry. The map key makes
// re-reacting a replacement rather than an append.
func (m *messageRepository) SetReaction(ctx context.Context, id string, userID string, r model.Reaction) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := m.mongoRepo.UpdateByID(ctx, id, bson.M{
		"reactions." + userID: r,
	})
	if err != nil {
		return fmt.Errorf("set reaction failed: %w", err)
	}
	return nil
}

func (m *messageRepository) RemoveReaction(ctx context.Context, id string, userID string) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid message ID format: %w", err)
	}

	_, err = m.mongoRepo.UpdateRaw(ctx, bson.M{"_id": oid}, bson.M{
		"$unset": bson.M{"reactions." + userID: ""},
	})
	if err != nil {
		return fmt.Errorf("remove reaction failed: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) handleReadError(err error, conversationID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("conversation_id", conversationID))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("conversation_id", conversationID))
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil // Not an error, just empty result
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("conversation_id", conversationID))
	return fmt.Errorf("list messages failed: %w", err)
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

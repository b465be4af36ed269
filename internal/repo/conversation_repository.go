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
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type conversationRepository struct {
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

type ConversationRepository interface {
	Insert(ctx context.Context, conv *model.Conversation) (string, error)
	GetByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	FindDirect(ctx context.Context, userA, userB string) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)
	SetLastMessage(ctx context.Context, conversationID string, lm model.LastMessage) error
	IncrementUnread(ctx context.Context, conversationID, participantID string) error
	ResetUnread(ctx context.Context, conversationID, participantID string, at time.Time) error
	SetParticipantSetting(ctx context.Context, conversationID, participantID, setting string, value bool) error
	AddParticipant(ctx context.Context, conversationID string, p model.Participant) error
	RemoveParticipant(ctx context.Context, conversationID, userID string) error
	MarkDeletedFor(ctx context.Context, conversationID, userID string) error
}

func NewConversationRepository(repo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *conversationRepository) Insert(ctx context.Context, conv *model.Conversation) (string, error) {
	if conv == nil {
		return "", errors.New("invalid conversation: cannot be nil")
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.Create(ctx, *conv)
	if err != nil {
		r.logger.Error("failed to insert conversation", zap.Error(err))
		return "", fmt.Errorf("insert conversation failed: %w", err)
	}

	insertedID := ""
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		insertedID = oid.Hex()
		conv.ID = oid
	}

	r.logger.Info("conversation inserted",
		zap.String("conversation_id", insertedID),
		zap.Bool("is_group", conv.IsGroup),
		zap.Int("participants", len(conv.Participants)),
	)
	return insertedID, nil
}

// GetByID fetches a conversation document by ID. Returns (nil, nil) when no
// document matches.
func (r *conversationRepository) GetByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	conv, err := r.mongoRepo.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("conversation not found",
				zap.String("conversation_id", conversationID),
			)
			return nil, nil
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	return conv, nil
}

// FindDirect looks up the non-deleted direct conversation between exactly
// the given pair, regardless of argument order.
func (r *conversationRepository) FindDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("is_group", false).
		All("participant_ids", []string{userA, userB}).
		Size("participant_ids", 2).
		Ne("is_deleted", true).
		Build()

	conv, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find direct conversation failed: %w", err)
	}
	return conv, nil
}

// ListForUser returns the user's conversations, most recently active first,
// excluding ones the user removed from view.
func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("participant_ids", userID).
		Ne("deleted_by", userID).
		Ne("is_deleted", true).
		Build()

	opts := options.Find().SetSort(bson.M{"last_message_at": -1})
	convs, err := r.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		r.logger.Error("failed to list conversations", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}

	r.logger.Debug("conversations listed", zap.String("user_id", userID), zap.Int("count", len(convs)))
	return convs, nil
}

func (r *conversationRepository) SetLastMessage(ctx context.Context, conversationID string, lm model.LastMessage) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.UpdateByID(ctx, conversationID, bson.M{
		"last_message":    lm,
		"last_message_at": lm.SentAt,
		"updated_at":      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("set last message failed: %w", err)
	}
	return nil
}

// IncrementUnread bumps the participant's counter with an atomic $inc so
// concurrent sends into the same conversation never lose updates.
func (r *conversationRepository) IncrementUnread(ctx context.Context, conversationID, participantID string) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	_, err = r.mongoRepo.UpdateRaw(ctx, bson.M{"_id": oid}, bson.M{
		"$inc": bson.M{"unread_counts." + participantID + ".count": 1},
	})
	if err != nil {
		return fmt.Errorf("increment unread failed: %w", err)
	}
	return nil
}

func (r *conversationRepository) ResetUnread(ctx context.Context, conversationID, participantID string, at time.Time) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	prefix := "unread_counts." + participantID
	_, err := r.mongoRepo.UpdateByID(ctx, conversationID, bson.M{
		prefix + ".count":        0,
		prefix + ".last_read_at": at,
	})
	if err != nil {
		return fmt.Errorf("reset unread failed: %w", err)
	}
	return nil
}

func (r *conversationRepository) SetParticipantSetting(ctx context.Context, conversationID, participantID, setting string, value bool) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.UpdateByID(ctx, conversationID, bson.M{
		"participant_settings." + participantID + "." + setting: value,
	})
	if err != nil {
		return fmt.Errorf("set participant setting failed: %w", err)
	}
	return nil
}

// AddParticipant appends the membership entry and seeds the unread/settings
// maps in the same update, keeping the 1:1-with-participants invariant.
func (r *conversationRepository) AddParticipant(ctx context.Context, conversationID string, p model.Participant) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	_, err = r.mongoRepo.UpdateRaw(ctx, bson.M{"_id": oid}, bson.M{
		"$push":     bson.M{"participants": p},
		"$addToSet": bson.M{"participant_ids": p.UserID},
		"$set": bson.M{
			"unread_counts." + p.UserID:        model.UnreadState{},
			"participant_settings." + p.UserID: model.ParticipantSettings{Notifications: true},
			"updated_at":                       time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("add participant failed: %w", err)
	}

	r.logger.Info("participant added",
		zap.String("conversation_id", conversationID),
		zap.String("user_id", p.UserID),
	)
	return nil
}

// RemoveParticipant drops the membership entry and the participant's
// unread/settings entries atomically with the membership change.
func (r *conversationRepository) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	_, err = r.mongoRepo.UpdateRaw(ctx, bson.M{"_id": oid}, bson.M{
		"$pull": bson.M{
			"participants":    bson.M{"user_id": userID},
			"participant_ids": userID,
		},
		"$unset": bson.M{
			"unread_counts." + userID:        "",
			"participant_settings." + userID: "",
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("remove participant failed: %w", err)
	}

	r.logger.Info("participant removed",
		zap.String("conversation_id", conversationID),
		zap.String("user_id", userID),
	)
	return nil
}

func (r *conversationRepository) MarkDeletedFor(ctx context.Context, conversationID, userID string) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	_, err = r.mongoRepo.UpdateRaw(ctx, bson.M{"_id": oid}, bson.M{
		"$addToSet": bson.M{"deleted_by": userID},
	})
	if err != nil {
		return fmt.Errorf("mark deleted failed: %w", err)
	}
	return nil
}

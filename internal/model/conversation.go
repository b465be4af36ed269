package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Conversation represents a chat conversation document in MongoDB.
// Per-participant state (unread counters, settings, soft deletes) is kept
// as maps keyed by user ID so uniqueness is enforced by the map itself.
type Conversation struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	IsGroup        bool               `json:"isGroup" bson:"is_group"`
	Participants   []Participant      `json:"participants" bson:"participants"`
	ParticipantIds []string           `json:"participantIds" bson:"participant_ids"`
	GroupInfo      *GroupInfo         `json:"groupInfo,omitempty" bson:"group_info,omitempty"`
	CreatedBy      string             `json:"createdBy" bson:"created_by"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updated_at"`
	LastMessageAt  time.Time          `json:"lastMessageAt" bson:"last_message_at"`
	LastMessage    *LastMessage       `json:"lastMessage" bson:"last_message"`

	// UnreadCounts and Settings hold exactly one entry per current
	// participant. Entries are created on join and removed on leave.
	UnreadCounts map[string]UnreadState         `json:"unreadCounts" bson:"unread_counts"`
	Settings     map[string]ParticipantSettings `json:"participantSettings" bson:"participant_settings"`

	// DeletedBy lists participants who removed the conversation from their
	// own view. The document itself is never hard-deleted.
	DeletedBy []string `json:"deletedBy" bson:"deleted_by"`
	IsDeleted bool     `json:"isDeleted" bson:"is_deleted"`
}

// Participant represents a user in a conversation
type Participant struct {
	UserID   string    `json:"userId" bson:"user_id"`
	Role     string    `json:"role" bson:"role"`
	JoinedAt time.Time `json:"joinedAt" bson:"joined_at"`
	IsActive bool      `json:"isActive" bson:"is_active"`
}

// GroupInfo holds group-conversation metadata
type GroupInfo struct {
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	Avatar      string   `json:"avatar" bson:"avatar"`
	CreatedBy   string   `json:"createdBy" bson:"created_by"`
	Admins      []string `json:"admins" bson:"admins"`
}

// LastMessage stores the most recent message preview
type LastMessage struct {
	MessageID string    `json:"messageId" bson:"message_id"`
	Preview   string    `json:"preview" bson:"preview"`
	SenderID  string    `json:"senderId" bson:"sender_id"`
	SentAt    time.Time `json:"sentAt" bson:"sent_at"`
}

// UnreadState tracks per-participant unread bookkeeping
type UnreadState struct {
	Count      int64      `json:"count" bson:"count"`
	LastReadAt *time.Time `json:"lastReadAt" bson:"last_read_at"`
}

// ParticipantSettings holds per-participant conversation settings
type ParticipantSettings struct {
	Muted         bool `json:"muted" bson:"muted"`
	Pinned        bool `json:"pinned" bson:"pinned"`
	Archived      bool `json:"archived" bson:"archived"`
	Notifications bool `json:"notifications" bson:"notifications"`
}

// HasParticipant reports whether userID is an active participant.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID && p.IsActive {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID holds the admin role.
func (c *Conversation) IsAdmin(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID && p.IsActive && p.Role == RoleAdmin {
			return true
		}
	}
	return false
}

// IsDeletedFor reports whether userID removed this conversation from view.
func (c *Conversation) IsDeletedFor(userID string) bool {
	for _, id := range c.DeletedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// SettingsFor returns the settings entry for userID, zero-valued if absent.
func (c *Conversation) SettingsFor(userID string) ParticipantSettings {
	return c.Settings[userID]
}

// OtherParticipantIds returns the active participants except userID.
func (c *Conversation) OtherParticipantIds(userID string) []string {
	others := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.IsActive && p.UserID != userID {
			others = append(others, p.UserID)
		}
	}
	return others
}

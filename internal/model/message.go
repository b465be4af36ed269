package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message content types. Exactly one payload variant is populated per type.
const (
	ContentText     = "text"
	ContentImage    = "image"
	ContentVideo    = "video"
	ContentAudio    = "audio"
	ContentFile     = "file"
	ContentLocation = "location"
	ContentContact  = "contact"
)

// MaxTextLength bounds the body of a text message.
const MaxTextLength = 1000

// Message represents a chat message document in MongoDB.
type Message struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID  `json:"conversationId" bson:"conversation_id"`
	SenderID       string              `json:"senderId" bson:"sender_id"`
	RecipientID    string              `json:"recipientId,omitempty" bson:"recipient_id,omitempty"`
	Content        Content             `json:"content" bson:"content"`
	Mentions       []string            `json:"mentions,omitempty" bson:"mentions,omitempty"`
	ReplyTo        *primitive.ObjectID `json:"replyTo,omitempty" bson:"reply_to,omitempty"`
	ThreadID       *primitive.ObjectID `json:"threadId,omitempty" bson:"thread_id,omitempty"`

	// Reactions holds at most one entry per user; re-reacting replaces.
	Reactions map[string]Reaction `json:"reactions,omitempty" bson:"reactions,omitempty"`

	// Delivery and read transitions are one-way, false -> true only.
	IsDelivered bool       `json:"isDelivered" bson:"is_delivered"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" bson:"delivered_at,omitempty"`
	IsRead      bool       `json:"isRead" bson:"is_read"`
	ReadAt      *time.Time `json:"readAt,omitempty" bson:"read_at,omitempty"`

	IsEdited    bool         `json:"isEdited" bson:"is_edited"`
	EditHistory []EditRecord `json:"editHistory,omitempty" bson:"edit_history,omitempty"`

	IsDeleted bool       `json:"isDeleted" bson:"is_deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" bson:"deleted_at,omitempty"`
	DeletedBy string     `json:"deletedBy,omitempty" bson:"deleted_by,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// Content is the tagged union carried by a message. Type selects which
// payload field is populated.
type Content struct {
	Type     string           `json:"type" bson:"type"`
	Text     string           `json:"text,omitempty" bson:"text,omitempty"`
	Media    *MediaPayload    `json:"media,omitempty" bson:"media,omitempty"`
	Location *LocationPayload `json:"location,omitempty" bson:"location,omitempty"`
	Contact  *ContactPayload  `json:"contact,omitempty" bson:"contact,omitempty"`
}

// MediaPayload carries image/video/audio/file attachments.
type MediaPayload struct {
	MediaID  string `json:"mediaId" bson:"media_id"`
	URL      string `json:"url" bson:"url"`
	MimeType string `json:"mimeType" bson:"mime_type"`
	Size     int64  `json:"size" bson:"size"`
	FileName string `json:"fileName,omitempty" bson:"file_name,omitempty"`
}

// LocationPayload carries a shared location.
type LocationPayload struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Name      string  `json:"name,omitempty" bson:"name,omitempty"`
}

// ContactPayload carries a shared contact card.
type ContactPayload struct {
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// Reaction represents a single user's reaction on a message
type Reaction struct {
	Emoji   string    `json:"emoji" bson:"emoji"`
	AddedAt time.Time `json:"addedAt" bson:"added_at"`
}

// EditRecord preserves a message body prior to an edit
type EditRecord struct {
	Text     string    `json:"text" bson:"text"`
	EditedAt time.Time `json:"editedAt" bson:"edited_at"`
}

// HasMedia reports whether the content carries an attachment payload.
func (c Content) HasMedia() bool {
	return c.Media != nil && (c.Media.MediaID != "" || c.Media.URL != "")
}

// Preview returns a short text used for conversation last-message previews.
func (m *Message) Preview() string {
	switch m.Content.Type {
	case ContentText:
		if len(m.Content.Text) > 80 {
			return m.Content.Text[:80]
		}
		return m.Content.Text
	case ContentLocation:
		return "[location]"
	case ContentContact:
		return "[contact]"
	default:
		return "[" + m.Content.Type + "]"
	}
}

// ErrorPayload represents an error response sent to client via WebSocket
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

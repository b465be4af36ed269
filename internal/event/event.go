package event

import "encoding/json"

// Client -> server events
const (
	EventSendMessage       = "send_message"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
)

// Server -> client events
const (
	EventReceiveMessage   = "receive_message"
	EventMessageCreated   = "message.created"
	EventMessageDelivered = "message.delivered"
	EventMessageSeen      = "message.seen"
	EventTyping           = "typing"
	EventError            = "error"
)

// WsEvent is the envelope for every frame on the socket.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// SendMessagePayload is the inbound send_message body.
type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Type           string `json:"type"`
	Text           string `json:"text"`
	MediaID        string `json:"mediaId,omitempty"`
	ReplyTo        string `json:"replyTo,omitempty"`
}

// ConversationPayload is the join/leave_conversation body.
type ConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

// TypingPayload is the typing_start/typing_stop body.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

package hub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/event"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/arjin21/omerpubgbagimliligi/internal/service"
)

const inboundHandleTimeout = 10 * time.Second

// handleEvent dispatches one inbound socket frame.
func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventSendMessage:
		h.handleSendMessage(ev, c)
	case event.EventJoinConversation:
		h.handleJoin(ev, c)
	case event.EventLeaveConversation:
		h.handleLeave(ev, c)
	case event.EventTypingStart:
		h.handleTyping(ev, c, true)
	case event.EventTypingStop:
		h.handleTyping(ev, c, false)
	default:
		log.Printf("unknown event type: %s", ev.Event)
	}
}

// handleSendMessage forwards a socket-originated message into the message
// service, so socket sends go through the exact same validation and
// persistence path as REST sends. The created message is echoed back to
// the sender's own connections; the service fans out to the other
// participants.
func (h *Hub) handleSendMessage(ev event.WsEvent, c *Client) {
	if h.sink == nil {
		h.sendError(c, "not_ready", "Messaging is not available")
		return
	}

	var payload event.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		log.Printf("failed to unmarshal send_message payload: %v", err)
		h.sendError(c, "invalid_payload", "Failed to parse send_message request")
		return
	}
	if payload.ConversationID == "" {
		h.sendError(c, "invalid_conversation_id", "conversationId is required")
		return
	}

	content := model.Content{Type: payload.Type, Text: payload.Text}
	if content.Type == "" {
		content.Type = model.ContentText
	}
	if payload.MediaID != "" {
		content.Media = &model.MediaPayload{MediaID: payload.MediaID}
	}

	ctx, cancel := context.WithTimeout(h.ctx, inboundHandleTimeout)
	defer cancel()

	msg, err := h.sink.Send(ctx, service.SendInput{
		ConversationID: payload.ConversationID,
		Sender:         c.userID,
		Content:        content,
		ReplyTo:        payload.ReplyTo,
	})
	if err != nil {
		h.sendError(c, "send_failed", err.Error())
		return
	}

	h.Notify(c.userID, event.EventReceiveMessage, msg)
}

func (h *Hub) handleJoin(ev event.WsEvent, c *Client) {
	var payload event.ConversationPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		h.sendError(c, "invalid_payload", "conversationId is required")
		return
	}
	c.JoinConversation(payload.ConversationID)
}

func (h *Hub) handleLeave(ev event.WsEvent, c *Client) {
	var payload event.ConversationPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		h.sendError(c, "invalid_payload", "conversationId is required")
		return
	}
	c.LeaveConversation(payload.ConversationID)
}

// handleTyping validates membership, then fans the indicator out to the
// other participants. Typing state is never persisted.
func (h *Hub) handleTyping(ev event.WsEvent, c *Client, isTyping bool) {
	if h.resolver == nil {
		return
	}

	var payload event.TypingPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		h.sendError(c, "invalid_payload", "conversationId is required")
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, inboundHandleTimeout)
	defer cancel()

	conv, err := h.resolver.Get(ctx, payload.ConversationID, c.userID)
	if err != nil {
		log.Printf("typing fan-out skipped for user %s: %v", c.userID, err)
		return
	}

	h.BroadcastTyping(payload.ConversationID, c.userID, conv.OtherParticipantIds(c.userID), isTyping)
}

func (h *Hub) sendError(c *Client, code, message string) {
	raw, err := json.Marshal(model.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	if !c.SafeSend(event.WsEvent{Event: event.EventError, Payload: raw}, sendTimeout) {
		log.Printf("failed to deliver error %s to client %s", code, c.ID)
	}
}

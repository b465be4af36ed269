package handler

import (
	"net/http"
	"strconv"

	"github.com/arjin21/omerpubgbagimliligi/internal/middleware"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/arjin21/omerpubgbagimliligi/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler interface {
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	GetMessage(c *gin.Context)
	EditMessage(c *gin.Context)
	DeleteMessage(c *gin.Context)
	React(c *gin.Context)
	Unreact(c *gin.Context)
}

type messageHandler struct {
	service service.MessageService
	logger  *zap.Logger
}

func NewMessageHandler(service service.MessageService, logger *zap.Logger) MessageHandler {
	return &messageHandler{
		service: service,
		logger:  logger,
	}
}

func (h *messageHandler) ListMessages(c *gin.Context) {
	userID := middleware.UserID(c)
	conversationID := c.Param("conversationId")

	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page number"})
		return
	}

	msgs, totalPages, err := h.service.ListByConversation(c.Request.Context(), conversationID, userID, pageNumber)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":   msgs,
		"page":       pageNumber,
		"totalPages": totalPages,
	})
}

type sendMessageRequest struct {
	Type     string                 `json:"type"`
	Text     string                 `json:"text"`
	MediaID  string                 `json:"mediaId"`
	Location *model.LocationPayload `json:"location"`
	Contact  *model.ContactPayload  `json:"contact"`
	ReplyTo  string                 `json:"replyTo"`
}

func (h *messageHandler) SendMessage(c *gin.Context) {
	userID := middleware.UserID(c)
	conversationID := c.Param("conversationId")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	content := model.Content{
		Type:     req.Type,
		Text:     req.Text,
		Location: req.Location,
		Contact:  req.Contact,
	}
	if content.Type == "" {
		content.Type = model.ContentText
	}
	if req.MediaID != "" {
		content.Media = &model.MediaPayload{MediaID: req.MediaID}
	}

	msg, err := h.service.Send(c.Request.Context(), service.SendInput{
		ConversationID: conversationID,
		Sender:         userID,
		Content:        content,
		ReplyTo:        req.ReplyTo,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// GetMessage resolves one message by id, including soft-deleted rows.
func (h *messageHandler) GetMessage(c *gin.Context) {
	userID := middleware.UserID(c)
	messageID := c.Param("messageId")

	msg, err := h.service.GetByID(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

type editMessageRequest struct {
	Text string `json:"text"`
}

func (h *messageHandler) EditMessage(c *gin.Context) {
	userID := middleware.UserID(c)
	messageID := c.Param("messageId")

	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	msg, err := h.service.Edit(c.Request.Context(), messageID, userID, req.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *messageHandler) DeleteMessage(c *gin.Context) {
	userID := middleware.UserID(c)
	messageID := c.Param("messageId")

	if err := h.service.SoftDelete(c.Request.Context(), messageID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

func (h *messageHandler) React(c *gin.Context) {
	userID := middleware.UserID(c)
	messageID := c.Param("messageId")

	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji is required"})
		return
	}

	if err := h.service.React(c.Request.Context(), messageID, userID, req.Emoji); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reaction recorded"})
}

func (h *messageHandler) Unreact(c *gin.Context) {
	userID := middleware.UserID(c)
	messageID := c.Param("messageId")

	if err := h.service.Unreact(c.Request.Context(), messageID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reaction removed"})
}

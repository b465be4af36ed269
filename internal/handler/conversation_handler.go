package handler

import (
	"net/http"

	"github.com/arjin21/omerpubgbagimliligi/internal/middleware"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/arjin21/omerpubgbagimliligi/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ConversationHandler interface {
	ListConversations(c *gin.Context)
	CreateConversation(c *gin.Context)
	DeleteConversation(c *gin.Context)
	MarkRead(c *gin.Context)
	SetSetting(setting string, value bool) gin.HandlerFunc
	AddParticipant(c *gin.Context)
	RemoveParticipant(c *gin.Context)
}

type conversationHandler struct {
	service service.ConversationService
	logger  *zap.Logger
}

func NewConversationHandler(service service.ConversationService, logger *zap.Logger) ConversationHandler {
	return &conversationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *conversationHandler) ListConversations(c *gin.Context) {
	userID := middleware.UserID(c)

	convs, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

type createConversationRequest struct {
	RecipientID  string           `json:"recipientId"`
	IsGroup      bool             `json:"isGroup"`
	Participants []string         `json:"participants"`
	GroupInfo    *model.GroupInfo `json:"groupInfo"`
}

// CreateConversation handles both direct find-or-create and group
// creation. Direct creation returns 200 for an existing conversation and
// 201 for a fresh one.
func (h *conversationHandler) CreateConversation(c *gin.Context) {
	userID := middleware.UserID(c)

	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.IsGroup {
		if req.GroupInfo == nil {
			respondError(c, h.logger, service.ErrMissingGroupName)
			return
		}
		conv, err := h.service.CreateGroup(c.Request.Context(), userID, req.Participants, *req.GroupInfo)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"conversation": conv})
		return
	}

	if req.RecipientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipientId is required"})
		return
	}

	conv, err := h.service.FindOrCreateDirect(c.Request.Context(), userID, req.RecipientID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if conv.LastMessage == nil && conv.CreatedAt.Equal(conv.UpdatedAt) {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"conversation": conv})
}

func (h *conversationHandler) DeleteConversation(c *gin.Context) {
	userID := middleware.UserID(c)
	conversationID := c.Param("conversationId")

	if err := h.service.DeleteForUser(c.Request.Context(), conversationID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

func (h *conversationHandler) MarkRead(c *gin.Context) {
	userID := middleware.UserID(c)
	conversationID := c.Param("conversationId")

	if err := h.service.MarkRead(c.Request.Context(), conversationID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation marked read"})
}

// SetSetting returns a handler toggling one per-participant setting
// (muted, pinned, archived) for the calling participant only.
func (h *conversationHandler) SetSetting(setting string, value bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		conversationID := c.Param("conversationId")

		if err := h.service.SetSetting(c.Request.Context(), conversationID, userID, setting, value); err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"setting": setting, "value": value})
	}
}

type participantRequest struct {
	UserID string `json:"userId"`
}

func (h *conversationHandler) AddParticipant(c *gin.Context) {
	requester := middleware.UserID(c)
	conversationID := c.Param("conversationId")

	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	if err := h.service.AddParticipant(c.Request.Context(), conversationID, requester, req.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "participant added"})
}

func (h *conversationHandler) RemoveParticipant(c *gin.Context) {
	requester := middleware.UserID(c)
	conversationID := c.Param("conversationId")
	userID := c.Param("userId")

	if err := h.service.RemoveParticipant(c.Request.Context(), conversationID, requester, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "participant removed"})
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arjin21/omerpubgbagimliligi/internal/middleware"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/arjin21/omerpubgbagimliligi/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// stubConversationService returns canned values; err wins when set.
type stubConversationService struct {
	conv *model.Conversation
	list []model.Conversation
	err  error
}

func (s *stubConversationService) FindOrCreateDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	return s.conv, s.err
}
func (s *stubConversationService) CreateGroup(ctx context.Context, creator string, participantIds []string, info model.GroupInfo) (*model.Conversation, error) {
	return s.conv, s.err
}
func (s *stubConversationService) Get(ctx context.Context, conversationID, requester string) (*model.Conversation, error) {
	return s.conv, s.err
}
func (s *stubConversationService) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	return s.list, s.err
}
func (s *stubConversationService) AddParticipant(ctx context.Context, conversationID, requester, userID string) error {
	return s.err
}
func (s *stubConversationService) RemoveParticipant(ctx context.Context, conversationID, requester, userID string) error {
	return s.err
}
func (s *stubConversationService) UpdateLastMessage(ctx context.Context, conversationID string, lm model.LastMessage) {
}
func (s *stubConversationService) IncrementUnread(ctx context.Context, conversationID, participantID, authorID string) error {
	return s.err
}
func (s *stubConversationService) MarkRead(ctx context.Context, conversationID, participantID string) error {
	return s.err
}
func (s *stubConversationService) SetSetting(ctx context.Context, conversationID, userID, setting string, value bool) error {
	return s.err
}
func (s *stubConversationService) DeleteForUser(ctx context.Context, conversationID, userID string) error {
	return s.err
}

type stubMessageService struct {
	msg  *model.Message
	list []model.Message
	err  error
}

func (s *stubMessageService) Send(ctx context.Context, in service.SendInput) (*model.Message, error) {
	return s.msg, s.err
}
func (s *stubMessageService) GetByID(ctx context.Context, messageID, requester string) (*model.Message, error) {
	return s.msg, s.err
}
func (s *stubMessageService) ListByConversation(ctx context.Context, conversationID, requester string, page int64) ([]model.Message, int64, error) {
	return s.list, 1, s.err
}
func (s *stubMessageService) MarkDelivered(ctx context.Context, messageID string) error { return s.err }
func (s *stubMessageService) MarkRead(ctx context.Context, messageID, reader string) error {
	return s.err
}
func (s *stubMessageService) Edit(ctx context.Context, messageID, editor, newText string) (*model.Message, error) {
	return s.msg, s.err
}
func (s *stubMessageService) SoftDelete(ctx context.Context, messageID, requester string) error {
	return s.err
}
func (s *stubMessageService) React(ctx context.Context, messageID, userID, emoji string) error {
	return s.err
}
func (s *stubMessageService) Unreact(ctx context.Context, messageID, userID string) error {
	return s.err
}

// asUser injects the authenticated identity the way JWTAuth would.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func newTestRouter(convs service.ConversationService, msgs service.MessageService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	ch := NewConversationHandler(convs, logger)
	mh := NewMessageHandler(msgs, logger)

	router := gin.New()
	api := router.Group("/dm/api", asUser("alice"))
	{
		api.GET("/conversations", ch.ListConversations)
		api.POST("/conversations", ch.CreateConversation)
		api.DELETE("/conversations/:conversationId", ch.DeleteConversation)
		api.POST("/conversations/:conversationId/read", ch.MarkRead)
		api.POST("/conversations/:conversationId/mute", ch.SetSetting("muted", true))
		api.POST("/conversations/:conversationId/participants", ch.AddParticipant)

		api.GET("/conversations/:conversationId/messages", mh.ListMessages)
		api.POST("/conversations/:conversationId/messages", mh.SendMessage)
		api.GET("/messages/:messageId", mh.GetMessage)
		api.PUT("/messages/:messageId", mh.EditMessage)
		api.DELETE("/messages/:messageId", mh.DeleteMessage)
		api.POST("/messages/:messageId/reactions", mh.React)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateDirectConversation(t *testing.T) {
	now := primitive.NewObjectID()
	convs := &stubConversationService{conv: &model.Conversation{ID: now}}
	router := newTestRouter(convs, &stubMessageService{})

	w := doJSON(t, router, http.MethodPost, "/dm/api/conversations",
		gin.H{"recipientId": "bob"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), now.Hex())
}

func TestCreateConversationMissingRecipient(t *testing.T) {
	router := newTestRouter(&stubConversationService{}, &stubMessageService{})

	w := doJSON(t, router, http.MethodPost, "/dm/api/conversations", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateGroupConversation(t *testing.T) {
	convs := &stubConversationService{conv: &model.Conversation{ID: primitive.NewObjectID(), IsGroup: true}}
	router := newTestRouter(convs, &stubMessageService{})

	w := doJSON(t, router, http.MethodPost, "/dm/api/conversations",
		gin.H{"isGroup": true, "participants": []string{"bob"}, "groupInfo": gin.H{"name": "g"}})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Group creation without groupInfo is a 400.
	w = doJSON(t, router, http.MethodPost, "/dm/api/conversations",
		gin.H{"isGroup": true, "participants": []string{"bob"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSelfConversation, http.StatusBadRequest},
		{service.ErrEditWindowExpired, http.StatusBadRequest},
		{service.ErrMessageDeleted, http.StatusBadRequest},
		{service.ErrBlocked, http.StatusForbidden},
		{service.ErrPrivacyDenied, http.StatusForbidden},
		{service.ErrNotParticipant, http.StatusForbidden},
		{service.ErrMutedConversation, http.StatusForbidden},
		{service.ErrUserNotFound, http.StatusNotFound},
		{service.ErrConversationNotFound, http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			convs := &stubConversationService{err: tt.err}
			router := newTestRouter(convs, &stubMessageService{})

			w := doJSON(t, router, http.MethodPost, "/dm/api/conversations",
				gin.H{"recipientId": "bob"})
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	convs := &stubConversationService{err: assert.AnError}
	router := newTestRouter(convs, &stubMessageService{})

	w := doJSON(t, router, http.MethodPost, "/dm/api/conversations",
		gin.H{"recipientId": "bob"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestSendMessage(t *testing.T) {
	msg := &model.Message{ID: primitive.NewObjectID(), SenderID: "alice",
		Content: model.Content{Type: model.ContentText, Text: "hi"}}
	router := newTestRouter(&stubConversationService{}, &stubMessageService{msg: msg})

	w := doJSON(t, router, http.MethodPost, "/dm/api/conversations/c1/messages",
		gin.H{"text": "hi"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), msg.ID.Hex())
}

func TestListMessagesPageValidation(t *testing.T) {
	router := newTestRouter(&stubConversationService{}, &stubMessageService{})

	w := doJSON(t, router, http.MethodGet, "/dm/api/conversations/c1/messages?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/dm/api/conversations/c1/messages?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/dm/api/conversations/c1/messages", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEditMessageStatuses(t *testing.T) {
	msgs := &stubMessageService{err: service.ErrNotAuthor}
	router := newTestRouter(&stubConversationService{}, msgs)

	w := doJSON(t, router, http.MethodPut, "/dm/api/messages/m1", gin.H{"text": "edit"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	msgs.err = service.ErrEditWindowExpired
	w = doJSON(t, router, http.MethodPut, "/dm/api/messages/m1", gin.H{"text": "edit"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReactRequiresEmoji(t *testing.T) {
	router := newTestRouter(&stubConversationService{}, &stubMessageService{})

	w := doJSON(t, router, http.MethodPost, "/dm/api/messages/m1/reactions", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/dm/api/messages/m1/reactions", gin.H{"emoji": "👍"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteEndpoints(t *testing.T) {
	router := newTestRouter(&stubConversationService{}, &stubMessageService{})

	w := doJSON(t, router, http.MethodDelete, "/dm/api/conversations/c1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/dm/api/messages/m1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMarkReadAndSettings(t *testing.T) {
	router := newTestRouter(&stubConversationService{}, &stubMessageService{})

	w := doJSON(t, router, http.MethodPost, "/dm/api/conversations/c1/read", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/dm/api/conversations/c1/mute", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"muted"`)
}

func TestAddParticipantValidation(t *testing.T) {
	router := newTestRouter(&stubConversationService{}, &stubMessageService{})

	w := doJSON(t, router, http.MethodPost, "/dm/api/conversations/c1/participants", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/dm/api/conversations/c1/participants",
		gin.H{"userId": "carol"})
	assert.Equal(t, http.StatusOK, w.Code)
}

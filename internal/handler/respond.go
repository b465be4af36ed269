package handler

import (
	"errors"
	"net/http"

	"github.com/arjin21/omerpubgbagimliligi/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError translates a service failure into a JSON error response.
// Unknown errors log full detail server-side and return a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSelfConversation),
		errors.Is(err, service.ErrMissingGroupName),
		errors.Is(err, service.ErrTooManyParticipants),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrTextTooLong),
		errors.Is(err, service.ErrInvalidContentType),
		errors.Is(err, service.ErrEditWindowExpired),
		errors.Is(err, service.ErrUnsupportedContentType),
		errors.Is(err, service.ErrReplyCrossConversation),
		errors.Is(err, service.ErrMessageDeleted):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrBlocked),
		errors.Is(err, service.ErrPrivacyDenied),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrNotAdmin),
		errors.Is(err, service.ErrNotAuthor),
		errors.Is(err, service.ErrMutedConversation):
		return http.StatusForbidden

	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

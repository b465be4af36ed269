package approuters

import (
	"github.com/arjin21/omerpubgbagimliligi/internal/configuration"
	"github.com/arjin21/omerpubgbagimliligi/internal/middleware"
	"github.com/gin-gonic/gin"
)

func ConversationRouters(router *gin.Engine, container *configuration.Container) {
	conv := container.ConversationHandler
	msg := container.MessageHandler

	convRoute := router.Group("/dm/api/conversations",
		container.RateLimiter.Middleware(),
		middleware.JWTAuth(container.Verifier),
	)
	{
		convRoute.GET("", conv.ListConversations)
		convRoute.POST("", conv.CreateConversation)
		convRoute.DELETE("/:conversationId", conv.DeleteConversation)

		convRoute.GET("/:conversationId/messages", msg.ListMessages)
		convRoute.POST("/:conversationId/messages", msg.SendMessage)

		convRoute.POST("/:conversationId/read", conv.MarkRead)

		convRoute.POST("/:conversationId/mute", conv.SetSetting("muted", true))
		convRoute.DELETE("/:conversationId/mute", conv.SetSetting("muted", false))
		convRoute.POST("/:conversationId/pin", conv.SetSetting("pinned", true))
		convRoute.DELETE("/:conversationId/pin", conv.SetSetting("pinned", false))
		convRoute.POST("/:conversationId/archive", conv.SetSetting("archived", true))
		convRoute.DELETE("/:conversationId/archive", conv.SetSetting("archived", false))

		convRoute.POST("/:conversationId/participants", conv.AddParticipant)
		convRoute.DELETE("/:conversationId/participants/:userId", conv.RemoveParticipant)
	}
}

package approuters

import (
	"github.com/arjin21/omerpubgbagimliligi/internal/configuration"
	"github.com/arjin21/omerpubgbagimliligi/internal/middleware"
	"github.com/gin-gonic/gin"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	msg := container.MessageHandler

	msgRoute := router.Group("/dm/api/messages",
		container.RateLimiter.Middleware(),
		middleware.JWTAuth(container.Verifier),
	)
	{
		msgRoute.GET("/:messageId", msg.GetMessage)
		msgRoute.PUT("/:messageId", msg.EditMessage)
		msgRoute.DELETE("/:messageId", msg.DeleteMessage)

		msgRoute.POST("/:messageId/reactions", msg.React)
		msgRoute.DELETE("/:messageId/reactions", msg.Unreact)
	}
}

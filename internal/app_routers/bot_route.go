package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/configuration"
	"github.com/khushik17/wee-Chat/internal/handler"
)

func BotRouters(router *gin.Engine, container *configuration.Container) {
	botRoute := router.Group("/api/bot", handler.Authorize(container.Config.JWTSecret))
	{
		botRoute.POST("/chat", container.BotHandler.Chat)
	}
}

package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/configuration"
	"github.com/khushik17/wee-Chat/internal/handler"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/api/chat", handler.Authorize(container.Config.JWTSecret))
	{
		chatRoute.GET("/messages", container.ChatHandler.GetMessages)
		chatRoute.GET("/recent", container.ChatHandler.GetRecentChats)
	}

	statsRoute := router.Group("/api/stats", handler.Authorize(container.Config.JWTSecret))
	{
		statsRoute.GET("", container.StatsHandler.GetStats)
	}
}

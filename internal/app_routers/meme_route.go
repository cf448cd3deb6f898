package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/configuration"
	"github.com/khushik17/wee-Chat/internal/handler"
)

func MemeRouters(router *gin.Engine, container *configuration.Container) {
	memeRoute := router.Group("/api/memes", handler.Authorize(container.Config.JWTSecret))
	{
		memeRoute.GET("", container.MemeHandler.GetFeed)
		memeRoute.POST("/like", container.MemeHandler.Like)
		memeRoute.POST("/unlike", container.MemeHandler.Unlike)
		memeRoute.POST("/comment", container.MemeHandler.Comment)
		memeRoute.POST("/refresh", container.MemeHandler.Refresh)
		memeRoute.POST("/share", container.MemeHandler.Share)
		memeRoute.GET("/shared", container.MemeHandler.GetShared)
	}
}

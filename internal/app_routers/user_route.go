package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/configuration"
	"github.com/khushik17/wee-Chat/internal/handler"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/api/users")
	{
		// Create stays open; it runs before the client has a session token.
		userRoute.POST("/create", container.UserHandler.CreateUser)

		authed := userRoute.Group("", handler.Authorize(container.Config.JWTSecret))
		{
			authed.GET("/profile", container.UserHandler.GetProfile)
			authed.PUT("/update", container.UserHandler.UpdateProfile)
			authed.GET("/search", container.UserHandler.SearchUsers)
		}
	}
}

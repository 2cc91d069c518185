package approuters

import (
	"github.com/MBSciTech/EcoChat/internal/configuration"
	"github.com/gin-gonic/gin"
)

func AuthRouters(router *gin.Engine, container *configuration.Container) {
	authRoute := router.Group("/ec/api/auth")
	{
		authRoute.POST("/register", container.AuthHandler.Register)
		authRoute.POST("/login", container.AuthHandler.Login)
	}
}

package approuters

import (
	"github.com/MBSciTech/EcoChat/internal/configuration"
	"github.com/MBSciTech/EcoChat/internal/handler"
	"github.com/gin-gonic/gin"
)

func GroupRouters(router *gin.Engine, container *configuration.Container) {
	groupRoute := router.Group("/ec/api/groups")
	groupRoute.Use(handler.AuthRequired(container.Tokens))
	{
		groupRoute.POST("", container.GroupHandler.CreateGroup)
		groupRoute.GET("", container.GroupHandler.GetMyGroups)
		groupRoute.GET("/:groupId", container.GroupHandler.GetGroup)
		groupRoute.POST("/:groupId/members", container.GroupHandler.AddMember)
		groupRoute.DELETE("/:groupId/members/:userId", container.GroupHandler.RemoveMember)
		groupRoute.POST("/:groupId/leave", container.GroupHandler.LeaveGroup)
		groupRoute.GET("/:groupId/messages", container.MessageHandler.GetGroupMessages)
	}
}

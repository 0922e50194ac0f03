package invite

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	invites := rg.Group("/invites")
	{
		invites.POST("", handler.SendInvite)
		invites.GET("", handler.ListInvites)
		invites.POST("/:inviteId/accept", handler.AcceptInvite)
		invites.POST("/:inviteId/reject", handler.RejectInvite)
	}
}

package chat

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	chat := rg.Group("/boards/:boardId/chat")
	{
		chat.GET("", handler.GetHistory)
		chat.POST("", handler.PostMessage)
	}
}

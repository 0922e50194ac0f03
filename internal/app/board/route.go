package board

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	boards := rg.Group("/boards")
	{
		boards.GET("", handler.ListBoards)
		boards.POST("", handler.CreateBoard)
		boards.GET("/:boardId", handler.GetBoard)
		boards.PUT("/:boardId", handler.UpdateBoard)
		boards.DELETE("/:boardId", handler.DeleteBoard)
	}
}

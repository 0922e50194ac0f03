package task

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	tasks := rg.Group("/boards/:boardId/tasks")
	{
		tasks.POST("", handler.CreateTask)
		tasks.PUT("/:taskId", handler.UpdateTask)
		tasks.DELETE("/:taskId", handler.DeleteTask)
		tasks.PUT("/:taskId/move", handler.MoveTask)
	}
}

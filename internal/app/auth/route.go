package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts register and login on public and validate on protected.
func RegisterRoutes(public, protected *gin.RouterGroup, handler Handler) {
	public.POST("/auth/register", handler.Register)
	public.POST("/auth/login", handler.Login)
	protected.GET("/auth/validate", handler.Validate)
}

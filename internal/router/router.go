package router

import (
	_ "taskboard/docs"
	"taskboard/internal/app/auth"
	"taskboard/internal/app/board"
	"taskboard/internal/app/chat"
	"taskboard/internal/app/health"
	"taskboard/internal/app/invite"
	"taskboard/internal/app/task"
	"taskboard/internal/gateways/websocket"
	"taskboard/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Router groups routes under /api. Protected routes require a bearer token.
type Router struct {
	Engine    *gin.Engine
	public    *gin.RouterGroup
	protected *gin.RouterGroup
}

func NewRouter(logger *zap.Logger, frontendURL string, authenticator middleware.Authenticator) *Router {
	engine := gin.New()
	engine.Use(middleware.CORSMiddleware(frontendURL))
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(gin.Recovery())

	api := engine.Group("/api")
	return &Router{
		Engine:    engine,
		public:    api,
		protected: api.Group("", middleware.AuthMiddleware(authenticator)),
	}
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.public, handler)
}

func (r *Router) RegisterWebSocketRoutes(hub *websocket.Hub) {
	websocket.RegisterRoutes(r.Engine, hub)
}

func (r *Router) RegisterAuthRoutes(handler auth.Handler) {
	auth.RegisterRoutes(r.public, r.protected, handler)
}

func (r *Router) RegisterBoardRoutes(handler board.Handler) {
	board.RegisterRoutes(r.protected, handler)
}

func (r *Router) RegisterTaskRoutes(handler task.Handler) {
	task.RegisterRoutes(r.protected, handler)
}

func (r *Router) RegisterChatRoutes(handler chat.Handler) {
	chat.RegisterRoutes(r.protected, handler)
}

func (r *Router) RegisterInviteRoutes(handler invite.Handler) {
	invite.RegisterRoutes(r.protected, handler)
}

func (r *Router) RegisterSwaggerRoutes() {
	r.Engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}

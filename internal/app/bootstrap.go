package app

import (
	"context"

	"taskboard/internal/app/auth"
	"taskboard/internal/app/board"
	"taskboard/internal/app/chat"
	"taskboard/internal/app/health"
	"taskboard/internal/app/invite"
	"taskboard/internal/app/maintenance"
	"taskboard/internal/app/task"
	"taskboard/internal/app/user"
	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/db/seeder"
	"taskboard/internal/gateways/websocket"
	"taskboard/internal/middleware"
	"taskboard/internal/providers/redis"
	"taskboard/internal/router"
	"taskboard/internal/utils"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version is stamped at build time with -ldflags "-X taskboard/internal/app.Version=...".
var Version = "dev"

type Application struct {
	Router  *router.Router
	DB      *gorm.DB
	Hub     *websocket.Hub
	Sweeper *maintenance.Sweeper
	redis   *redis.RedisProvider
	logger  *zap.Logger
}

// Bootstrap wires every service. The hub and the sweeper run until ctx is cancelled
// or Close is called.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	var (
		cache         board.Cache
		redisProvider *redis.RedisProvider
		redisClient   *goredis.Client
	)
	if cfg.RedisURL != "" {
		redisProvider = redis.NewRedisProvider(ctx, cfg.RedisURL, logger, cfg.RedisTTL)
		cache = redisProvider
		redisClient = redisProvider.Client
	} else {
		logger.Warn("REDIS_URL is empty, board view cache disabled")
	}
	eventBus := utils.NewEventBus(logger)

	userRepo := user.NewRepository(dbConn)
	boardRepo := board.NewRepository(dbConn)
	taskRepo := task.NewRepository(dbConn)
	chatRepo := chat.NewRepository(dbConn)
	inviteRepo := invite.NewRepository(dbConn)

	boardService := board.NewService(dbConn, boardRepo, taskRepo, userRepo, cache, eventBus, logger)
	authService := auth.NewService(dbConn, userRepo, boardService, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), logger)
	taskService := task.NewService(taskRepo, boardService, eventBus, logger, task.Options{
		UpdateRequiresRole: cfg.TaskUpdateRequiresRole,
	})
	chatService := chat.NewService(chatRepo, boardService, userRepo, eventBus, logger)
	inviteService := invite.NewService(inviteRepo, boardService, userRepo, eventBus, logger)

	if cfg.SeedDemo {
		seed := seeder.NewSeeder(dbConn, authService, boardService, taskService, logger)
		if err := seed.Seed(ctx); err != nil {
			logger.Warn("Failed to run seeders", zap.Error(err))
		}
	}

	hub := websocket.NewHub(logger, eventBus, authService, boardService, chatService, middleware.AllowedOrigins(cfg.FrontendURL))
	go hub.Run(ctx)

	sweeper := maintenance.NewSweeper(taskRepo, boardRepo, boardService, cfg.OrphanSweepCron, cfg.OrphanGrace, logger)
	if err := sweeper.Start(); err != nil {
		return nil, err
	}

	r := router.NewRouter(logger, cfg.FrontendURL, authService)

	r.RegisterHealthRoutes(health.NewHandler(health.NewService(dbConn, redisClient, Version)))
	r.RegisterWebSocketRoutes(hub)
	r.RegisterAuthRoutes(auth.NewHandler(authService))
	r.RegisterBoardRoutes(board.NewHandler(boardService))
	r.RegisterTaskRoutes(task.NewHandler(taskService))
	r.RegisterChatRoutes(chat.NewHandler(chatService))
	r.RegisterInviteRoutes(invite.NewHandler(inviteService))
	r.RegisterSwaggerRoutes()

	return &Application{
		Router:  r,
		DB:      dbConn,
		Hub:     hub,
		Sweeper: sweeper,
		redis:   redisProvider,
		logger:  logger,
	}, nil
}

// Close stops background jobs and releases connections.
func (a *Application) Close(ctx context.Context) {
	a.Sweeper.Stop(ctx)
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
}

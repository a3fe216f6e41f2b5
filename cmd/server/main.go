// Package main runs the workshop registration assistant HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-workshops/backend/config"
	"github.com/aura-workshops/backend/internal/assistant"
	"github.com/aura-workshops/backend/internal/auth"
	"github.com/aura-workshops/backend/internal/chat"
	"github.com/aura-workshops/backend/internal/chathistory"
	"github.com/aura-workshops/backend/internal/llm"
	"github.com/aura-workshops/backend/internal/middleware"
	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/internal/registrations"
	"github.com/aura-workshops/backend/internal/workshops"
	"github.com/aura-workshops/backend/pkg/database"
	"github.com/aura-workshops/backend/pkg/queue"
	"github.com/aura-workshops/backend/pkg/redis"
	"github.com/aura-workshops/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Chat.Store == config.ChatStoreRedis || cfg.Chat.HistoryMode == config.HistoryModeQueue {
		rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	authRepo := auth.NewRepository(pool)

	// Workshops
	workshopRepo := workshops.NewRepository(pool)
	workshopHandler := workshops.NewHandler(workshopRepo, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationService := registrations.NewService(registrationRepo, workshopRepo, logger)
	registrationHandler := registrations.NewHandler(registrationRepo, logger)

	// Chat history: written inline, or handed to cmd/worker through the Redis queue
	historyRepo := chathistory.NewRepository(pool)
	var history assistant.HistoryStore = historyRepo
	if cfg.Chat.HistoryMode == config.HistoryModeQueue {
		history = chathistory.NewQueuedWriter(queue.NewQueue(rdb.Client, logger), historyRepo)
	}

	// Session state and the per-session turn lock
	var sessions assistant.SessionStore
	var locks assistant.TurnLocker
	if cfg.Chat.Store == config.ChatStoreRedis {
		store := assistant.NewRedisStore(rdb.Client, cfg.Chat.SessionTTL, cfg.Chat.LockTTL, logger)
		sessions, locks = store, store
	} else {
		store := assistant.NewMemoryStore(cfg.Chat.SessionTTL)
		sessions, locks = store, store
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn("LLM_API_KEY is empty; completions will fail and the assistant will fall back to canned replies")
	}
	completer := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: &cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	controller := assistant.NewController(assistant.Deps{
		Completer: completer,
		Directory: workshops.NewCachedLister(workshopRepo, cfg.Chat.CatalogCacheTTL),
		Registrar: registrationService,
		Sessions:  sessions,
		Locks:     locks,
		History:   history,
		Accounts:  authRepo,
	}, assistant.Options{
		CatalogSize:  cfg.Chat.CatalogInPrompt,
		HistoryLimit: cfg.Chat.HistoryLimit,
	}, logger)
	chatHandler := chat.NewHandler(controller, middleware.OriginChecker(cfg.Server.CORSAllowedOrigins), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Public catalog
	router.GET("/workshops", workshopHandler.List)
	router.GET("/workshops/:id", workshopHandler.GetByID)

	// Chat: anonymous or authenticated
	chatRoutes := router.Group("/", middleware.OptionalJWT(jwtService))
	chatRoutes.POST("/chat/sessions", chatHandler.CreateSession)
	chatRoutes.POST("/chat/messages", chatHandler.PostMessage)
	chatRoutes.GET("/chat/sessions/:id/messages", chatHandler.History)
	chatRoutes.GET("/ws/chat", chatHandler.ServeWs)

	// Authenticated
	api := router.Group("/", middleware.JWT(jwtService))
	api.GET("/me/registrations", registrationHandler.Mine)
	api.GET("/workshops/:id/registrations", middleware.RequireRole(models.RoleAdmin), registrationHandler.ListByWorkshop)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("chat_store", cfg.Chat.Store),
			zap.String("history_mode", cfg.Chat.HistoryMode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

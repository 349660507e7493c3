package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beckon/config"
	"beckon/internal/auth"
	"beckon/internal/handler"
	"beckon/internal/middleware"
	"beckon/internal/service"
	"beckon/internal/store"
)

func Setup(cfg *config.Config, st store.Store, verifier auth.Verifier, pusher service.Pusher, log *zap.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	dispatcher := service.NewDispatcher(pusher, log)
	lifecycle := service.NewLifecycle(st, dispatcher, log)

	requestHandler := handler.NewRequestHandler(lifecycle)
	chatHandler := handler.NewChatHandler(lifecycle)
	tokenHandler := handler.NewTokenHandler(lifecycle)
	meHandler := handler.NewMeHandler(lifecycle)

	authMw := middleware.AuthRequired(verifier)
	limitMw := middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(authMw, limitMw)
	{
		api.GET("/me", meHandler.Me)
		api.POST("/route-request", requestHandler.Route)
		api.POST("/respond-offer", requestHandler.RespondOffer)
		api.POST("/accept-offer", requestHandler.AcceptOffer)
		api.POST("/send-chat-message", chatHandler.SendMessage)
		api.POST("/cancel-request", requestHandler.Cancel)
		api.POST("/mark-completed", requestHandler.MarkCompleted)
		api.POST("/mark-no-show", requestHandler.MarkNoShow)
		api.POST("/register-push-token", tokenHandler.Register)
	}

	return r
}

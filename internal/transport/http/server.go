package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "resumeguru/internal/app"
	"resumeguru/internal/bootstrap"
	"resumeguru/internal/cache"
	"resumeguru/internal/generator"
	"resumeguru/internal/platform/rabbitmq"
	"resumeguru/internal/renderer"
	"resumeguru/internal/repository"
	"resumeguru/internal/transport/http/handler"
	"resumeguru/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	downloadRepo := repository.NewDownloadRepository(app.MySQL)
	subscriptionRepo := repository.NewSubscriptionRepository(app.MySQL)

	sessionCache := cache.NewSessionCache(
		app.Redis,
		time.Duration(app.Config.Redis.PointerTTLHours)*time.Hour,
		time.Duration(app.Config.Redis.SnapshotTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.DirtyTTLSeconds)*time.Second,
	)
	eventPublisher := rabbitmq.NewSessionEventPublisher(app.MQConn, app.Config.RabbitMQ.SessionEventQueue)
	generatorClient := generator.NewClient(generator.Config{
		WebhookURL:  app.Config.Generator.WebhookURL,
		Source:      app.Config.Generator.Source,
		Type:        app.Config.Generator.Type,
		Timeout:     time.Duration(app.Config.Generator.TimeoutSeconds) * time.Second,
		MaxAttempts: app.Config.Generator.MaxAttempts,
		RetryDelay:  time.Duration(app.Config.Generator.RetryDelaySecond) * time.Second,
	})
	rendererClient := renderer.NewClient(
		app.Config.Renderer.BaseURL,
		time.Duration(app.Config.Renderer.TimeoutSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	reconciler := appsvc.NewReconcilerService(sessionRepo, messageRepo, sessionCache, eventPublisher)
	conversation := appsvc.NewConversationService(sessionRepo, reconciler, generatorClient)
	subscriptions := appsvc.NewSubscriptionService(subscriptionRepo)
	exports := appsvc.NewExportService(downloadRepo, subscriptions, rendererClient, app.Config.Quota.FreeMonthlyDownloads)

	authHandler := handler.NewAuthHandler(authService)
	sessionHandler := handler.NewSessionHandler(reconciler)
	chatHandler := handler.NewChatHandler(conversation, reconciler)
	exportHandler := handler.NewExportHandler(exports)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptions, exports)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	sessionGroup := v1.Group("/session")
	sessionGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	sessionGroup.POST("/restore", sessionHandler.Restore)
	sessionGroup.POST("/visibility", sessionHandler.Visibility)
	sessionGroup.POST("/unload", sessionHandler.Unload)
	sessionGroup.POST("/reset", sessionHandler.Reset)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.GET("/history", chatHandler.GetHistory)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.POST("/export", exportHandler.Export)
	authed.GET("/export/remaining", exportHandler.Remaining)
	authed.GET("/subscription", subscriptionHandler.Status)

	return router
}

package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"docuchat/internal/ai"
	appsvc "docuchat/internal/app"
	"docuchat/internal/bootstrap"
	"docuchat/internal/cache"
	"docuchat/internal/repository"
	"docuchat/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = app.Config.Upload.MaxSizeBytes

	docRepo := repository.NewDocumentRepository(app.DB)
	sessionRepo := repository.NewSessionRepository(app.DB)
	messageRepo := repository.NewMessageRepository(app.DB, sessionRepo)
	userRepo := repository.NewUserRepository(app.DB)

	var historyCache appsvc.HistoryCache
	if app.Redis != nil {
		historyCache = cache.NewHistoryCache(
			app.Redis,
			time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}

	llmConfig := ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	}

	documentService := appsvc.NewDocumentService(
		docRepo, sessionRepo, messageRepo, historyCache, app.Config.Upload.MaxSizeBytes)
	chatService := appsvc.NewChatService(
		docRepo, sessionRepo, messageRepo, historyCache, ai.NewCompletionClient(), llmConfig)
	userService := appsvc.NewUserService(userRepo)

	healthHandler := handler.NewHealthHandler(app)
	documentHandler := handler.NewDocumentHandler(documentService, app.Config.Upload.MaxSizeBytes)
	chatHandler := handler.NewChatHandler(chatService)
	userHandler := handler.NewUserHandler(userService)

	api := router.Group("/api")
	api.GET("/health", healthHandler.Check)

	api.GET("/documents", documentHandler.List)
	api.POST("/documents/upload", documentHandler.Upload)
	api.GET("/documents/:id", documentHandler.Get)
	api.DELETE("/documents/:id", documentHandler.Delete)
	api.GET("/documents/:id/sessions", documentHandler.ListSessions)
	api.POST("/documents/:id/sessions", documentHandler.CreateSession)

	api.GET("/sessions/:id/messages", documentHandler.ListMessages)

	api.POST("/chat", chatHandler.Send)
	api.POST("/users", userHandler.Register)

	return router
}

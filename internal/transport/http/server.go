package http

import (
	"github.com/gin-gonic/gin"

	"nebula-chat/internal/bootstrap"
	"nebula-chat/internal/transport/http/handler"
	"nebula-chat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLog(app.Logger), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	chatHandler := handler.NewChatHandler(app.Chat)
	preferenceHandler := handler.NewPreferenceHandler(app.Chat)
	documentHandler := handler.NewDocumentHandler(app.Chat)
	voiceHandler := handler.NewVoiceHandler(app.Chat)

	v1 := router.Group("/api/v1")

	chatGroup := v1.Group("/chat")
	chatGroup.GET("/sessions", chatHandler.ListSessions)
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions/current", chatHandler.GetCurrentSession)
	chatGroup.GET("/sessions/:id", chatHandler.GetSession)
	chatGroup.PUT("/sessions/:id/select", chatHandler.SelectSession)
	chatGroup.DELETE("/sessions/:id", chatHandler.DeleteSession)
	chatGroup.POST("/messages", chatHandler.SendMessage)

	prefGroup := v1.Group("/preferences")
	prefGroup.GET("/memory", preferenceHandler.GetMemory)
	prefGroup.PUT("/memory", preferenceHandler.SetMemory)

	docGroup := v1.Group("/documents")
	docGroup.GET("", documentHandler.List)
	docGroup.POST("", documentHandler.Upload)

	voiceGroup := v1.Group("/voice")
	voiceGroup.GET("", voiceHandler.Status)
	voiceGroup.POST("/start", voiceHandler.Start)
	voiceGroup.POST("/chunks", voiceHandler.Chunk)
	voiceGroup.POST("/stop", voiceHandler.Stop)
	voiceGroup.POST("/toggle", voiceHandler.Toggle)

	return router
}

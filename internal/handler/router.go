package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vaanipro/backend/internal/service"
)

// Dependencies bundles what the router needs.
type Dependencies struct {
	Auth           *service.AuthService
	Google         *service.GoogleAuthService
	Chats          *service.ChatService
	AI             *service.AIService
	Agent          AgentStreamer
	Cookies        *TokenCookies
	AllowedOrigins []string
	Readiness      map[string]Pinger
	Log            logrus.FieldLogger
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(deps.Log), CORSMiddleware(deps.AllowedOrigins, true))

	router.GET("/", Root)
	router.GET("/health", Health)
	router.GET("/ready", Ready(deps.Readiness))
	router.GET("/openapi.json", OpenAPIDoc)

	requireAuth := AuthMiddleware(deps.Auth, deps.Cookies)

	authHandler := NewAuthHandler(deps.Auth, deps.Cookies)
	googleHandler := NewGoogleHandler(deps.Google, deps.Cookies, deps.Log)
	auth := router.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", OptionalAuth(deps.Auth, deps.Cookies), authHandler.Logout)
		auth.POST("/refresh-token", authHandler.RefreshToken)
		auth.GET("/check-auth", requireAuth, authHandler.Me)
		auth.GET("/profile", requireAuth, authHandler.Me)
		auth.GET("/google", googleHandler.Login)
		auth.GET("/google/callback", googleHandler.Callback)
	}

	api := router.Group("/api", requireAuth)
	{
		chatHandler := NewChatHandler(deps.Chats)
		api.GET("/chat/history/all", chatHandler.History)
		api.POST("/chat/save", chatHandler.Save)
		api.PUT("/chat/:chatId/update", chatHandler.Update)
		api.GET("/chat/:chatId", chatHandler.Get)
		api.DELETE("/chat/:chatId", chatHandler.Delete)

		aiHandler := NewAIHandler(deps.AI)
		api.POST("/ai/generate-title", aiHandler.GenerateTitle)
		api.POST("/ai/generate-summary", aiHandler.GenerateSummary)

		agentHandler := NewAgentHandler(deps.Agent, deps.Log)
		api.POST("/agent/stream", agentHandler.Stream)
	}

	return router
}

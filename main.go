package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vaanipro/backend/internal/cache"
	"github.com/vaanipro/backend/internal/client"
	"github.com/vaanipro/backend/internal/config"
	"github.com/vaanipro/backend/internal/db"
	"github.com/vaanipro/backend/internal/handler"
	"github.com/vaanipro/backend/internal/logging"
	"github.com/vaanipro/backend/internal/service"
)

// @title Vaani API
// @version 1.0
// @description Authentication, chat history and AI helper endpoints.
// @BasePath /
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name accessToken
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger := logging.New(cfg.Log, cfg.Server.Production())
	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to mongodb")
	}
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Fatal("failed to ensure mongodb indexes")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	sessions := cache.NewStore(redisClient, logger)

	tokens, err := service.NewTokenService(cfg.Auth)
	if err != nil {
		logger.WithError(err).Fatal("failed to init token service")
	}

	authService := service.NewAuthService(mongoStore, sessions, tokens, logger)
	googleService := service.NewGoogleAuthService(
		client.NewGoogleClient(ctx, cfg.Google), mongoStore, sessions, tokens, cfg.Server.FrontendURL, logger,
	)
	chatService := service.NewChatService(mongoStore, logger)

	var generator service.TextGenerator
	if genaiClient, err := client.NewGenAIClient(ctx, cfg.Gemini); err != nil {
		logger.WithError(err).Warn("ai helpers disabled")
	} else {
		generator = genaiClient
	}
	aiService := service.NewAIService(generator, logger)

	agentClient := client.NewAgentClient(cfg.Agent, logger)
	if !agentClient.IsConfigured() {
		logger.Warn("AGENT_URL not set; agent proxy disabled")
	}

	router := handler.NewRouter(handler.Dependencies{
		Auth:           authService,
		Google:         googleService,
		Chats:          chatService,
		AI:             aiService,
		Agent:          agentClient,
		Cookies:        handler.NewTokenCookies(cfg.Cookie, tokens.AccessTTL(), tokens.RefreshTTL()),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Readiness:      map[string]handler.Pinger{"mongo": mongoStore, "redis": sessions},
		Log:            logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	if err := redisClient.Close(); err != nil {
		logger.WithError(err).Warn("redis close failed")
	}
	if err := mongoStore.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("mongodb close failed")
	}
}

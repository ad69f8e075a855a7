package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"llmchat-backend/internal/config"
	"llmchat-backend/internal/database"
	"llmchat-backend/internal/handlers"
	"llmchat-backend/internal/middleware"
	"llmchat-backend/internal/repository"
	"llmchat-backend/internal/router"
	"llmchat-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer logger.Sync()
	logger.Info("starting llmchat backend", zap.String("env", cfg.Env))

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("postgres connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	conversationRepo := repository.NewConversationRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	sessionStore := services.NewRedisSessionStore(redisClient)
	authService := services.NewAuthService(userRepo, sessionStore, jwtAuth, logger)
	llmService := services.NewLLMService(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	chatService := services.NewChatService(conversationRepo, llmService, logger)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(userRepo, conversationRepo, chatService)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(jwtAuth, authHandler, chatHandler, cfg.FrontendURL, cfg.AuthRateLimit)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays 0: chat responses are long-lived SSE streams
		// and a write deadline would cut them off mid-generation.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	logger.Info("llmchat backend ready", zap.String("addr", server.Addr))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(fmt.Sprintf("logger init failed: %v", err))
	}
	return logger
}

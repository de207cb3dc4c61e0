package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"tg-auth/internal/config"
	"tg-auth/internal/db"
	apihttp "tg-auth/internal/http"
	"tg-auth/internal/repository"
	"tg-auth/internal/service"
	"tg-auth/internal/telegram"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	jwtSvc, err := service.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		logger.Fatal("jwt config", zap.Error(err))
	}

	var deduper service.UpdateDeduper
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			deduper = service.NewRedisUpdateDeduper(redisClient, 10*time.Minute)
		}
		cancel()
	}

	if cfg.TelegramWebhookSecret == "" {
		logger.Warn("webhook secret not configured, accepting unsigned webhooks")
	}

	store := repository.NewPgStore(pool, cfg.DBSchema)
	gateway := telegram.NewClient("", cfg.TelegramBotToken, logger)

	tokenSvc := service.NewAuthTokenService(logger, store, cfg.AuthTokenTTL)
	sessionSvc := service.NewSessionService(logger, store, jwtSvc, cfg.RefreshTokenTTL)
	webhookSvc := service.NewWebhookService(logger, tokenSvc, gateway, cfg.SiteURL, deduper)

	authHandler := apihttp.NewAuthHandler(logger, tokenSvc, sessionSvc)
	notifyHandler := apihttp.NewNotifyHandler(logger, gateway, cfg.TelegramChatID)
	webhookHandler := apihttp.NewWebhookHandler(logger, webhookSvc, cfg.TelegramWebhookSecret)
	router := apihttp.NewRouter(logger, cfg.AllowedOrigins, authHandler, notifyHandler, webhookHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"speshway/internal/api"
	"speshway/internal/auth"
	"speshway/internal/cache"
	"speshway/internal/config"
	"speshway/internal/database"
	"speshway/internal/mailer"
	"speshway/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("api bootstrapping",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		logger.Error("init database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("auto migrate", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	cacheStore := cache.NewRedisStore(redisClient)

	objectStore, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		logger.Error("init object storage", slog.Any("error", err))
		os.Exit(1)
	}

	localStore, err := storage.NewLocalStore(cfg.API.UploadDir, cfg.API.PublicURL)
	if err != nil {
		logger.Error("init upload storage", slog.Any("error", err))
		os.Exit(1)
	}

	authService, err := auth.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Error("init auth service", slog.Any("error", err))
		os.Exit(1)
	}

	mail := mailer.NewSMTPMailer(cfg.SMTP)

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, cfg, db, authService, cacheStore, objectStore, localStore, mail)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		logger.Error("api server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

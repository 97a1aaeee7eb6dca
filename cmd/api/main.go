package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"minimal-price/internal/cache"
	"minimal-price/internal/config"
	"minimal-price/internal/database"
	"minimal-price/internal/discord"
	"minimal-price/internal/event"
	"minimal-price/internal/logger"
	"minimal-price/internal/repository"
	"minimal-price/internal/server"
	"minimal-price/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, discordManager *discord.Manager, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 30 seconds to finish the requests it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if discordManager != nil {
		discordManager.Stop()
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

func main() {
	// Local development convenience; viper reads the environment either way
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting price catalog API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	db := dbService.DB()

	health := dbService.Health(context.Background())
	log.Info("Database health check", zap.Any("health", health))

	// Run migrations
	if err := database.RunMigrations(db, "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Wire the catalog core: store, cache, notifier, service
	catalogRepo := repository.NewCatalogRepository(db)
	catalogCache := cache.New(catalogRepo)
	notifier := event.NewNotifier(log)
	catalog := service.NewCatalogService(catalogRepo, catalogCache, notifier, log)

	if err := catalog.Warm(context.Background()); err != nil {
		log.Fatal("Failed to warm catalog cache", zap.Error(err))
	}

	// Discord mirror, optional
	var discordManager *discord.Manager
	if cfg.Discord.Enabled {
		discordClient := discord.NewClient(cfg.Discord.APIBaseURL, cfg.Discord.BotToken)
		syncRepo := repository.NewSyncRepository(db)
		discordManager = discord.NewManager(
			discordClient,
			catalog,
			syncRepo,
			notifier,
			cfg.Discord.ForumChannelID,
			cfg.Discord.Currency,
			log,
		)
		discordManager.Start(context.Background())
		log.Info("Discord mirror enabled", zap.String("forum_channel", cfg.Discord.ForumChannelID))
	} else {
		log.Info("Discord mirror disabled")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	srv := server.NewServer(cfg, log, dbService, catalog, redisClient)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, discordManager, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}

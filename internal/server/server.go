package server

import (
	"fmt"
	"net/http"
	"time"

	"minimal-price/internal/config"
	"minimal-price/internal/database"
	custommiddleware "minimal-price/internal/middleware"
	"minimal-price/internal/service"
	"minimal-price/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, catalog service.CatalogService, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, db.Health(r.Context()))
	})

	catalogHandler := transport.NewCatalogHandler(catalog, logger)

	editGuards := []func(http.Handler) http.Handler{
		custommiddleware.RequireEditToken(cfg.Auth.EditToken, logger),
	}
	if redisClient != nil {
		editGuards = append(editGuards, custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 30,
			Window:            time.Minute,
			KeyPrefix:         "ratelimit:catalog",
		}, logger))
	}

	catalogHandler.RegisterRoutes(router, editGuards...)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

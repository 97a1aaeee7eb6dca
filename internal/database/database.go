package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"minimal-price/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Service wraps the connection pool and exposes health information
type Service struct {
	db *sql.DB
}

// New opens a pooled Postgres connection from the given configuration.
// The pool must be sized so that concurrent mutations plus the Discord
// mirror's reads cannot exhaust it; a slow subscriber never holds a
// connection across its own HTTP calls.
func New(cfg config.DatabaseConfig) (*Service, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.Schema)

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Service{db: db}, nil
}

// DB returns the underlying connection pool
func (s *Service) DB() *sql.DB {
	return s.db
}

// Health reports connectivity and pool statistics
func (s *Service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}

	stats := s.db.Stats()
	status["status"] = "up"
	status["open_connections"] = strconv.Itoa(stats.OpenConnections)
	status["in_use"] = strconv.Itoa(stats.InUse)
	status["idle"] = strconv.Itoa(stats.Idle)
	status["wait_count"] = strconv.FormatInt(stats.WaitCount, 10)

	return status
}

// Close shuts down the connection pool
func (s *Service) Close() error {
	return s.db.Close()
}

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marcus/tdash/internal/auth"
	"github.com/marcus/tdash/internal/serverdb"
)

// TaskStore is the persistence the task routes need.
type TaskStore interface {
	Upsert(ctx context.Context, row *serverdb.TaskRow) error
	Get(ctx context.Context, userID, id string) (*serverdb.TaskRow, error)
	ListByUser(ctx context.Context, userID string) ([]serverdb.TaskRow, error)
	Delete(ctx context.Context, userID, id string) error
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server for tdash.
type Server struct {
	config      Config
	http        *http.Server
	tasks       TaskStore
	db          Pinger
	issuer      *auth.Issuer
	metrics     *Metrics
	rateLimiter *RateLimiter
	addr        net.Addr
}

// NewServer creates a new Server. db may be nil, in which case /healthz
// reports ok without a database check.
func NewServer(cfg Config, tasks TaskStore, db Pinger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 300
	}
	s := &Server{
		config:      cfg,
		tasks:       tasks,
		db:          db,
		issuer:      auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		metrics:     NewMetrics(),
		rateLimiter: NewRateLimiter(),
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Issuer returns the token issuer the server verifies against.
func (s *Server) Issuer() *auth.Issuer {
	return s.issuer
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.addr = ln.Addr()

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()
	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.http.Shutdown(ctx)
}

// Handler builds the gin engine with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(recoveryMiddleware(), requestIDMiddleware(), loggerMiddleware(), metricsMiddleware(s.metrics), loggingMiddleware())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metricz", s.handleMetrics)

	v1 := r.Group("/v1")
	v1.Use(jwtAuthMiddleware(s.issuer), rateLimitMiddleware(s.rateLimiter, s.config.RateLimit))
	{
		v1.GET("/tasks", s.handleListTasks)
		v1.GET("/tasks/:id", s.handleGetTask)
		v1.PUT("/tasks/:id", s.handleUpsertTask)
		v1.DELETE("/tasks/:id", s.handleDeleteTask)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, ErrCodeNotFound, "no such route")
	})
	return r
}

// handleHealth returns a health check response, pinging the database.
func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		if err := s.db.Ping(c.Request.Context()); err != nil {
			logFor(c.Request.Context()).Error("health ping", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "detail": "db unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}

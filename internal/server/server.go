package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuvision/backend/config"
	"github.com/menuvision/backend/internal/api"
	"github.com/menuvision/backend/internal/middleware"
	"github.com/menuvision/backend/internal/router"
)

// Server represents the HTTP server
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New creates a new server instance. rateLimiter may be nil.
func New(cfg *config.Config, menuHandler *api.MenuHandler, rateLimiter *middleware.RateLimiter) *Server {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.SetupRouter(menuHandler, rateLimiter)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
	}
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

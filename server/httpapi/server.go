package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/config"
	"github.com/kasuganosora/knapsackga/pkg/solver"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server is the HTTP REST API server
type Server struct {
	svc        *solver.Service
	cfg        config.HTTPAPIConfig
	logger     api.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP API server
func NewServer(svc *solver.Service, cfg config.HTTPAPIConfig, logger api.Logger) *Server {
	if logger == nil {
		logger = api.NewNoOpLogger()
	}
	return &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

// Router builds the gin engine: Recovery → CORS → Logging, the /api/v1 routes
// and, when enabled, /metrics.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(RecoveryMiddleware(s.logger), CORSMiddleware(s.cfg.AllowedOrigins), LoggingMiddleware(s.logger))

	RegisterRoutes(router.Group("/api/v1"), NewHandlers(s.svc, s.logger))
	if s.cfg.Metrics {
		router.GET("/metrics", gin.WrapH(s.svc.Metrics().Handler()))
	}
	return router
}

// Start starts the HTTP API server (blocking). It returns nil after Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("[HTTP API] 启动 HTTP API 服务器: %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP API server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

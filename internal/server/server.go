package server

import (
	"net/http"

	"wsecho/config"
	"wsecho/internal/middleware"
	"wsecho/internal/transport/httpdto"
	"wsecho/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	registry   *Registry
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

func New(cfg *config.Config, registry *Registry, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		httpServer: &http.Server{
			Addr:    cfg.Addr(),
			Handler: engine,
		},
		engine:   engine,
		config:   cfg,
		registry: registry,
		logger:   l,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))

	wsHandler := NewWebSocketHandler(s.registry)
	s.engine.GET("/ws", wsHandler.Handle)

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if !s.registry.Running() {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("registry not running"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
			"status":      "healthy",
			"connections": s.registry.Count(),
		}))
	})
}

// Engine exposes the router, mainly so tests can mount it on httptest.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start announces the listening address and serves until the process is
// terminated. A bind failure is returned to the caller; there is no retry.
func (s *Server) Start() error {
	s.logger.Infof("listening on server %s", s.config.Addr())

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

package ui

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"goqv/app"
	"goqv/domain/core"
	"goqv/domain/qv"
	"goqv/internal"

	"github.com/gin-gonic/gin"
)

// Config holds the report server configuration
type Config struct {
	Addr    string
	GinMode string
	Widths  *qv.WidthConfig
}

// Server exposes a quantum volume run over HTTP. One server owns one run:
// clients feed trial results in, then query per-width statistics and the
// resolved volume report. Handlers serialize engine access through a mutex
// so the accumulate semantics hold under concurrent requests.
type Server struct {
	router *gin.Engine
	svc    *app.VolumeService
	logger *internal.Logger
	addr   string

	mu sync.Mutex
}

// NewServer creates a report server over a fresh run
func NewServer(cfg Config) (*Server, error) {
	if cfg.Widths == nil {
		return nil, fmt.Errorf("server: width configuration is required")
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		router: gin.Default(),
		svc:    app.NewVolumeService(core.RunID(core.NewID()), cfg.Widths, app.VolumeServiceConfig{}),
		logger: internal.DefaultLogger,
		addr:   addr,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/run", s.handleRunInfo)
		api.GET("/widths", s.handleListWidths)
		api.GET("/widths/:index/statistics", s.handleWidthStatistics)
		api.GET("/volume", s.handleVolume)

		api.POST("/trials/ideal", s.handleAddIdeal)
		api.POST("/trials/experimental", s.handleAddExperimental)
		api.POST("/simulate", s.handleSimulate)
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
}

// Router exposes the gin engine for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting report server on %s (run %s)", s.addr, s.svc.RunID())
	return s.router.Run(s.addr)
}

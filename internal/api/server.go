// Package api exposes the session service and simulation batches over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rmultiple-lab/internal/observability"
	"rmultiple-lab/internal/reporting"
	"rmultiple-lab/internal/service"
	"rmultiple-lab/internal/simulation"
	"rmultiple-lab/internal/storage"
)

// DefaultStreamChunk is the chunk size of a stream request without one.
const DefaultStreamChunk = 100

// Server routes HTTP requests to the service layer.
type Server struct {
	router *gin.Engine

	sessions   *service.Service
	runner     *simulation.Runner
	batches    storage.SimulationBatchStore
	aggregates storage.StrategyAggregateStore
	reports    *reporting.Generator

	logger       *zap.Logger
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
	defaultChunk int
}

// Options contains configuration for creating a Server.
type Options struct {
	Sessions   *service.Service
	Runner     *simulation.Runner
	Batches    storage.SimulationBatchStore
	Aggregates storage.StrategyAggregateStore

	Logger       *zap.Logger
	Metrics      *observability.Metrics
	DefaultChunk int
	// ServeMetrics mounts /metrics on this router.
	ServeMetrics bool
}

// NewServer creates a server with all routes registered.
func NewServer(opts Options) *Server {
	s := &Server{
		router:       gin.New(),
		sessions:     opts.Sessions,
		runner:       opts.Runner,
		batches:      opts.Batches,
		aggregates:   opts.Aggregates,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		defaultChunk: opts.DefaultChunk,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.defaultChunk <= 0 {
		s.defaultChunk = DefaultStreamChunk
	}
	if opts.Batches != nil && opts.Aggregates != nil {
		s.reports = reporting.NewGenerator(opts.Batches, opts.Aggregates)
	}

	s.router.Use(gin.Recovery(), s.requestLogger())
	s.routes(opts.ServeMetrics)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(serveMetrics bool) {
	s.router.GET("/health", s.handleHealth)
	if serveMetrics {
		s.router.GET("/metrics", gin.WrapH(observability.Handler()))
	}

	api := s.router.Group("/api")
	api.GET("/presets", s.handlePresets)
	api.GET("/strategies", s.handleStrategies)

	sessions := api.Group("/sessions")
	sessions.POST("", s.handleStartSession)
	sessions.DELETE("/:id", s.handleDeleteSession)
	sessions.POST("/:id/trades", s.handleExecuteTrade)
	sessions.POST("/:id/batch", s.handleExecuteBatch)
	sessions.POST("/:id/strategy-batch", s.handleExecuteStrategyBatch)
	sessions.GET("/:id/stats", s.handleStats)
	sessions.POST("/:id/restart", s.handleRestart)
	sessions.GET("/:id/stream", s.handleStream)

	if s.runner != nil {
		api.POST("/simulations", s.handleRunSimulations)
	}
	if s.reports != nil {
		api.GET("/batches", s.handleListBatches)
		api.GET("/batches/:id", s.handleGetBatch)
		api.GET("/batches/:id/report", s.handleBatchReport)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs every request at debug level and failures at warn.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Warn("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		s.logger.Debug("request", fields...)
	}
}

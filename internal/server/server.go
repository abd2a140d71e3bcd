package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gridsim/gridbot/internal/engine"
)

// Controller is the engine surface the API drives. Keeping it an interface
// lets the handler tests run against a stub.
type Controller interface {
	Start()
	Stop()
	SetDeposit(amount float64) error
	IsRunning() bool
	Snapshot() engine.Snapshot
}

// Server exposes the state and control API plus health and metrics.
type Server struct {
	controller Controller
	health     http.Handler
	log        zerolog.Logger
	httpServer *http.Server
}

// New builds the HTTP server on addr.
func New(addr string, controller Controller, health http.Handler, log zerolog.Logger) *Server {
	s := &Server{
		controller: controller,
		health:     health,
		log:        log.With().Str("component", "server").Logger(),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.requestLog())

	api := router.Group("/api")
	{
		api.GET("/state", s.handleState)
		api.POST("/start", s.handleStart)
		api.POST("/stop", s.handleStop)
		api.POST("/deposit", s.handleDeposit)
	}
	router.GET("/healthz", gin.WrapH(health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("api server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Handler exposes the router, used by the handler tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = ulid.Make().String()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", c.GetString("request_id")).
			Msg("request handled")
	}
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleStart(c *gin.Context) {
	s.controller.Start()
	c.JSON(http.StatusOK, gin.H{"running": true})
}

func (s *Server) handleStop(c *gin.Context) {
	s.controller.Stop()
	c.JSON(http.StatusOK, gin.H{"running": false})
}

type depositRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	if err := s.controller.SetDeposit(req.Amount); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposit": req.Amount})
}

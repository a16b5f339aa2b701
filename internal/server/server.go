// Package server exposes the verification pipeline over HTTP and MCP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/veritas/internal/logging"
	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/pipeline"
	"github.com/ppiankov/veritas/internal/store"
)

// Verifier runs one verification
type Verifier interface {
	Run(ctx context.Context, text string, onProgress model.ProgressFunc) (*model.Report, error)
}

// ReportStore persists completed reports
type ReportStore interface {
	Save(ctx context.Context, report *model.Report) error
	Get(ctx context.Context, id string) (*model.Report, error)
	Recent(ctx context.Context, n int) ([]store.Summary, error)
}

// Server is the HTTP front end of a Verifier
type Server struct {
	verifier Verifier
	store    ReportStore
	logger   logrus.FieldLogger
	engine   *gin.Engine
	addr     string
}

// Option configures a Server
type Option func(*Server)

// WithStore persists every completed report and enables the /reports routes
func WithStore(s ReportStore) Option {
	return func(srv *Server) { srv.store = s }
}

// New creates a server for verifier
func New(verifier Verifier, cfg model.ServerConfig, logger logrus.FieldLogger, opts ...Option) *Server {
	s := &Server{
		verifier: verifier,
		logger:   logging.OrDiscard(logger),
		addr:     cfg.Addr,
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(gin.Recovery(), requestLogger(s.logger), cors.New(corsConfig(cfg.AllowOrigins)))
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, model.ErrorResponse{Detail: "Method Not Allowed"})
	})
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Detail: "Not Found"})
	})

	engine.GET("/", s.handleRoot)
	engine.POST("/verify", s.handleVerify)
	engine.POST("/verify/stream", s.handleVerifyStream)
	if s.store != nil {
		engine.GET("/reports", s.handleRecent)
		engine.GET("/reports/:id", s.handleReport)
	}

	s.engine = engine
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Veritas verification API is online"})
}

func (s *Server) handleVerify(c *gin.Context) {
	var req model.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: "Request body must be JSON with a text field"})
		return
	}

	report, err := s.verifier.Run(c.Request.Context(), req.Text, nil)
	if err != nil {
		status, detail := errorStatus(err)
		s.logger.WithError(err).WithField("status", status).Warn("verification failed")
		c.JSON(status, model.ErrorResponse{Detail: detail})
		return
	}

	s.persist(c.Request.Context(), report)
	c.JSON(http.StatusOK, report.Wire())
}

// handleVerifyStream sends progress events, then one report or error event
func (s *Server) handleVerifyStream(c *gin.Context) {
	var req model.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: "Request body must be JSON with a text field"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	report, err := s.verifier.Run(c.Request.Context(), req.Text, func(e model.ProgressEvent) {
		c.SSEvent("progress", e)
		c.Writer.Flush()
	})
	if err != nil {
		s.logger.WithError(err).Warn("streamed verification failed")
		c.SSEvent("error", pipeline.Describe(err))
		c.Writer.Flush()
		return
	}

	s.persist(c.Request.Context(), report)
	c.SSEvent("report", report)
	c.Writer.Flush()
}

func (s *Server) handleRecent(c *gin.Context) {
	summaries, err := s.store.Recent(c.Request.Context(), 20)
	if err != nil {
		s.logger.WithError(err).Error("list reports failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Detail: "Could not list reports"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleReport(c *gin.Context) {
	report, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Detail: "Report not found"})
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("load report failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Detail: "Could not load report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) persist(ctx context.Context, report *model.Report) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(context.WithoutCancel(ctx), report); err != nil {
		s.logger.WithError(err).WithField("run_id", report.ID).Error("persist report failed")
	}
}

// errorStatus maps a run error to an HTTP status and detail
func errorStatus(err error) (int, string) {
	var transport *pipeline.TransportError
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusBadRequest, "Text input is required"
	case errors.As(err, &transport):
		return http.StatusBadGateway, "Could not reach " + transport.Stage + " backend"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Verification timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Verification was cancelled"
	default:
		return http.StatusInternalServerError, "Verification failed"
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}

	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Debug("request")
	}
}

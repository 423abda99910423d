// Package server exposes the claim-check pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EunoiaC/Verify/internal/model"
	"github.com/EunoiaC/Verify/internal/pipeline"
	"github.com/EunoiaC/Verify/internal/worker"
)

// Server serves POST /receive and GET /health
type Server struct {
	cfg      model.ServerConfig
	analyzer worker.Analyzer
	engine   *gin.Engine
	logger   *slog.Logger
}

// New creates a server that checks posts with analyzer
func New(cfg model.ServerConfig, analyzer worker.Analyzer) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		engine:   gin.New(),
		logger:   slog.Default().With("component", "server"),
	}
	s.engine.HandleMethodNotAllowed = true
	s.engine.Use(gin.Recovery(), s.logRequests)
	s.routes()
	return s
}

func (s *Server) routes() {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{http.MethodPost, http.MethodOptions}
	corsCfg.AllowBrowserExtensions = true
	if len(s.cfg.AllowedOrigins) == 0 || containsWildcard(s.cfg.AllowedOrigins) {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowedOrigins
	}

	receive := s.engine.Group("/receive", cors.New(corsCfg))
	receive.POST("", s.receive)
	receive.OPTIONS("", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	s.engine.GET("/health", s.health)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type receiveReq struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
	Body  string  `json:"body"`
}

func (s *Server) receive(c *gin.Context) {
	var req receiveReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	post := model.Post{ID: req.ID, Title: *req.Title, Body: req.Body}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	s.logger.Info("received post", "id", post.ID, "title", post.Title)

	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	analysis, err := s.analyzer.Analyze(ctx, post)
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case pipeline.IsUpstreamError(err):
		s.logger.Error("upstream failure", "id", post.ID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("analysis failed", "id", post.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start))
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

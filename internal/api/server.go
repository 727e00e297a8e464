package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/waterprint/waterprint/internal/api/handler"
	"github.com/waterprint/waterprint/internal/config"
	"github.com/waterprint/waterprint/internal/engine"
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	engine    *engine.Engine
}

// New creates the HTTP server. The gin mode must be set by the caller.
func New(cfg *config.Config, e *engine.Engine) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if e == nil {
		return nil, fmt.Errorf("engine is required")
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		engine:    e,
	}
	s.ginEngine.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		// pdf and png are already compressed
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/export/(pdf|chart)$`})),
	)
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	h := handler.New(s.engine)

	s.ginEngine.GET("/health", h.Health)

	api := s.ginEngine.Group("/api")
	api.GET("/categories", h.ListCategories)
	api.POST("/estimate", h.Estimate)
	api.GET("/stats", h.Stats)

	users := api.Group("/users")
	users.POST("", h.RegisterUser)
	users.GET("/:id", h.GetUser)
	users.POST("/:id/entries", h.RecordEntry)
	users.GET("/:id/breakdown", h.GetBreakdown)
	users.GET("/:id/footprint", h.GetTotalFootprint)
	users.GET("/:id/comparison", h.GetComparison)
	users.GET("/:id/export/:format", h.Export)
	users.POST("/:id/report/email", h.EmailReport)

	admin := api.Group("/admin")
	admin.GET("/jobs", h.GetJobs)
	admin.POST("/jobs/:id/run", h.RunJob)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", "listen", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("shutting down API server")
	return srv.Shutdown(shutdownCtx)
}

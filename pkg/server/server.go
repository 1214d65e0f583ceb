// Package server exposes commute analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elonfeng/commutescore/pkg/commute"
	"github.com/elonfeng/commutescore/pkg/scoring"
)

// Analyzer is satisfied by *commute.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, origin, destination string) (*commute.Analysis, error)
	Keys() commute.Keys
	Warnings() []string
}

// WeightSource is satisfied by *scoring.Engine.
type WeightSource interface {
	TrafficWeights() scoring.Weights
	BikeWeights() scoring.Weights
}

// Server provides the HTTP API.
type Server struct {
	analyzer        Analyzer
	weights         WeightSource
	port            int
	shutdownTimeout time.Duration
	logger          *zap.Logger
	router          *gin.Engine
}

// New creates a new HTTP server.
func New(analyzer Analyzer, weights WeightSource, port int, shutdownTimeout time.Duration, logger *zap.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer:        analyzer,
		weights:         weights,
		port:            port,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.Named("server"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the gin engine serving the API.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.logger), requestLogger(s.logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.handleHealth)

	v1 := r.Group("/api/v1")
	v1.POST("/analyze", s.handleAnalyze)
	v1.GET("/status", s.handleStatus)
	v1.GET("/weights", s.handleWeights)
	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type analyzeRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	an, err := s.analyzer.Analyze(c.Request.Context(), req.Origin, req.Destination)
	switch {
	case errors.Is(err, commute.ErrMissingAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("analyze failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, an)
}

func (s *Server) handleStatus(c *gin.Context) {
	keys := s.analyzer.Keys()
	c.JSON(http.StatusOK, gin.H{
		"providers": gin.H{
			"google_maps": mode(keys.GoogleMaps),
			"openweather": mode(keys.OpenWeather),
			"mapbox":      mode(keys.Mapbox),
		},
		"warnings": s.analyzer.Warnings(),
	})
}

func (s *Server) handleWeights(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"traffic": s.weights.TrafficWeights(),
		"bike":    s.weights.BikeWeights(),
	})
}

func mode(live bool) commute.DataSource {
	if live {
		return commute.SourceReal
	}
	return commute.SourceSimulated
}

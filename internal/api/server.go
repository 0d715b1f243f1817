// Package api exposes the risk engine over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
	"github.com/pharmaguard/pgx-risk-engine/internal/middleware"
	"github.com/pharmaguard/pgx-risk-engine/internal/service"
)

// AssessmentStore persists completed assessments and serves lookups.
type AssessmentStore interface {
	Save(ctx context.Context, assessment domain.RiskAssessment) error
	GetByID(ctx context.Context, id string) (domain.RiskAssessment, error)
	ListRecent(ctx context.Context, limit int) ([]domain.RiskAssessment, error)
}

// ResultCache memoizes assessments by their inputs.
type ResultCache interface {
	Get(ctx context.Context, ocrText string, variants []domain.PatientVariant) (domain.RiskAssessment, bool, error)
	Set(ctx context.Context, ocrText string, variants []domain.PatientVariant, assessment domain.RiskAssessment) error
}

// OCRClient extracts text from a scanned label image.
type OCRClient interface {
	ExtractText(ctx context.Context, image []byte, filename string) (string, error)
}

// Options carries the optional server dependencies. Nil fields
// disable the corresponding feature.
type Options struct {
	Store     AssessmentStore
	Cache     ResultCache
	OCR       OCRClient
	Version   string
	DebugMode bool
}

// Server is the HTTP front end of the risk engine.
type Server struct {
	config   domain.ServerConfig
	assessor *service.Assessor
	opts     Options
	logger   *logrus.Logger
	router   *gin.Engine
	server   *http.Server
}

// NewServer wires the router, middleware, and routes.
func NewServer(config domain.ServerConfig, assessor *service.Assessor, opts Options, logger *logrus.Logger) *Server {
	if opts.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(corsMiddleware())

	s := &Server{
		config:   config,
		assessor: assessor,
		opts:     opts,
		logger:   logger,
		router:   router,
	}
	s.setupRoutes()
	return s
}

// Start runs the HTTP server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.WithFields(logrus.Fields{"addr": addr}).Info("HTTP server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assess", s.handleAssess)
		v1.POST("/scan", s.handleScan)
		v1.GET("/assessments/:id", s.handleGetAssessment)
		v1.GET("/assessments", s.handleListAssessments)
		v1.GET("/drugs", s.handleListDrugs)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

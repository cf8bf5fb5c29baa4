// Package server exposes the manifest operations over HTTP. The
// transport stays thin: it parses parameters once, delegates to the
// app layer, and maps the error taxonomy onto status codes.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/datacurio/schemactl/internal/app"
	"github.com/datacurio/schemactl/internal/config"
	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/schema"
	"github.com/datacurio/schemactl/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	orchestrator *app.Orchestrator
	pipeline     *app.Pipeline
	resolver     *schema.Resolver
	expander     *schema.Expander
	storage      domain.Storage
	logger       *utils.Logger
}

// Options contains the collaborators and settings of a Server
type Options struct {
	Config       config.ServerConfig
	Orchestrator *app.Orchestrator
	Pipeline     *app.Pipeline
	Resolver     *schema.Resolver
	Expander     *schema.Expander
	Storage      domain.Storage // nil disables the storage routes
	Logger       *utils.Logger
}

// New creates a new HTTP server
func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	logger = logger.WithComponent("http")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if opts.Config.Metrics {
		router.Use(requestMetrics())
	}

	s := &Server{
		router:       router,
		orchestrator: opts.Orchestrator,
		pipeline:     opts.Pipeline,
		resolver:     opts.Resolver,
		expander:     opts.Expander,
		storage:      opts.Storage,
		logger:       logger,
	}

	s.setupRoutes(opts.Config.Metrics)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Config.Port),
		Handler:      router,
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(metrics bool) {
	s.router.GET("/health", s.handleHealth)
	if metrics {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := s.router.Group("/v1")
	{
		v1.POST("/manifest/generate", s.handleGenerate)
		v1.POST("/manifest/populate", s.handlePopulate)
		v1.POST("/model/validate", s.handleValidate)
		v1.POST("/model/submit", s.handleSubmit)

		v1.GET("/schemas/dependencies", s.handleDependencies)
		v1.GET("/schemas/range", s.handleRange)
		v1.GET("/schemas/required", s.handleRequired)
		v1.GET("/schemas/validation-rules", s.handleValidationRules)
		v1.GET("/schemas/display-names", s.handleDisplayNames)
		v1.GET("/schemas/property-label", s.handlePropertyLabel)
		v1.GET("/schemas/graph-by-edge-type", s.handleGraphByEdgeType)
		v1.GET("/components/requirements", s.handleComponentRequirements)

		if s.storage != nil {
			storage := v1.Group("/storage")
			storage.GET("/projects", s.handleProjects)
			storage.GET("/projects/:id/datasets", s.handleProjectDatasets)
			storage.GET("/projects/:id/manifests", s.handleProjectManifests)
			storage.GET("/datasets/:id/files", s.handleDatasetFiles)
			storage.GET("/datasets/:id/manifest", s.handleDatasetManifest)
			storage.GET("/manifests/:id", s.handleDownloadManifest)
			storage.GET("/manifests/:id/component", s.handleManifestComponent)
			storage.GET("/assetview", s.handleAssetViewTable)
			storage.GET("/assetview/:id", s.handleAssetViewCheck)
			storage.GET("/entities/:id/type", s.handleEntityType)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Handler exposes the underlying router, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

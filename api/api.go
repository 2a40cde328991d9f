package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/memories/api/mcp"
	apisearch "github.com/papercomputeco/memories/api/search"
	"github.com/papercomputeco/memories/pkg/ingest"
)

// Server is the API server for ingesting and searching memories
type Server struct {
	config     Config
	normalizer *ingest.Normalizer
	service    *ingest.Service
	mcpServer  *mcp.Server
	logger     *slog.Logger
	app        *fiber.App
}

// NewServer creates a new API server.
// The vector driver and embedder are injected so the process owns a single
// instance of each.
func NewServer(config Config, logger *slog.Logger, opts ...ingest.Option) (*Server, error) {
	if config.VectorDriver == nil {
		return nil, errors.New("vector driver is required")
	}
	if config.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if config.TopK <= 0 {
		config.TopK = apisearch.DefaultTopK
	}

	normalizer := ingest.NewNormalizer(config.Embedder, opts...)
	service := ingest.NewService(ingest.ServiceConfig{
		Driver:      config.VectorDriver,
		Publisher:   config.Publisher,
		Dimensions:  config.Dimensions,
		VectorStore: config.VectorStore,
		Logger:      logger,
	})

	mcpServer, err := mcp.NewServer(mcp.Config{
		VectorDriver: config.VectorDriver,
		Embedder:     config.Embedder,
		Normalizer:   normalizer,
		Service:      service,
		TopK:         config.TopK,
		Noop:         config.DisableMCP,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
	})
	app.Use(recover.New())

	s := &Server{
		config:     config,
		normalizer: normalizer,
		service:    service,
		mcpServer:  mcpServer,
		logger:     logger,
		app:        app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/memories/text", s.handleTextMemory)
	app.Post("/memories/audio", s.handleAudioMemory)
	app.Post("/memories/image", s.handleImageMemory)
	app.Post("/memories/video", s.handleVideoMemory)
	app.Post("/memories/spatial", s.handleSpatialMemory)
	app.Get("/memories/:id", s.handleGetMemory)
	app.Get("/search", s.handleSearchEndpoint)
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

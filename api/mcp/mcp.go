// Package mcp provides an MCP (Model Context Protocol) server exposing
// memory search and text ingestion as tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memories/pkg/embeddings"
	"github.com/papercomputeco/memories/pkg/ingest"
	"github.com/papercomputeco/memories/pkg/utils"
	"github.com/papercomputeco/memories/pkg/vector"
)

type Config struct {
	// VectorDriver for similarity search
	VectorDriver vector.Driver

	// Embedder for converting query text to vectors
	Embedder embeddings.Embedder

	// Normalizer and Service back the save_text_memory tool
	Normalizer *ingest.Normalizer
	Service    *ingest.Service

	// TopK is the default number of search results
	TopK int

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "memories",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.VectorDriver == nil {
			return nil, errors.New("vector driver is required")
		}
		if c.Embedder == nil {
			return nil, errors.New("embedder is required")
		}
		if c.Normalizer == nil || c.Service == nil {
			return nil, errors.New("ingest normalizer and service are required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchToolName,
			Description: searchDescription,
		}, s.handleSearch)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        saveTextToolName,
			Description: saveTextDescription,
		}, s.handleSaveText)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// errorResult builds a tool result reporting a failure to the model.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

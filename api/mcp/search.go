package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/memories/api/search"
)

var (
	searchToolName    = "search_memories"
	searchDescription = "Search stored memories (text, audio, image, video, spatial) by similarity to the query text. Optionally restrict results to one memory type."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the search query text"`
	MemoryType string `json:"memory_type,omitempty" jsonschema:"restrict results to one of: text, audio, image, video, spatial"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, apisearch.SearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = s.config.TopK
	}

	output, err := apisearch.Search(ctx, apisearch.SearchInput{
		Query:      input.Query,
		MemoryType: input.MemoryType,
		TopK:       topK,
	}, s.config.Embedder, s.config.VectorDriver, s.config.Logger)
	if err != nil {
		s.config.Logger.Error("MCP search failed", "error", err)
		return errorResult(fmt.Sprintf("Search failed: %v", err)), apisearch.SearchOutput{}, nil
	}

	// Tools returning structured content also return the serialized JSON
	// in a TextContent block for older clients.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), apisearch.SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}

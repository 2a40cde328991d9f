// Package search provides the shared query contract for similarity search
// over stored memories. It is used by both the REST API endpoint and the MCP
// server tool.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/memories/pkg/embeddings"
	"github.com/papercomputeco/memories/pkg/memory"
	"github.com/papercomputeco/memories/pkg/vector"
)

// DefaultTopK is the number of results returned when none is requested.
const DefaultTopK = 5

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	Query      string `json:"query"`
	MemoryType string `json:"memory_type,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID        string          `json:"id"`
	Type      memory.Modality `json:"type"`
	Metadata  map[string]any  `json:"metadata"`
	Embedding []float32       `json:"embedding"`
	Score     float32         `json:"score"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// ParseFilter turns an optional memory_type value into a vector filter.
// An empty value means no filter.
func ParseFilter(memoryType string) (vector.Filter, error) {
	if memoryType == "" {
		return nil, nil
	}

	modality, err := memory.ParseModality(memoryType)
	if err != nil {
		return nil, memory.NewInputError("Invalid memory_type. Must be one of: " + memory.ModalityNames())
	}

	return vector.Filter{memory.MetadataTypeKey: string(modality)}, nil
}

// Search embeds the query and returns the most similar memories, optionally
// restricted to one modality. Input errors match memory.ErrInvalidInput.
func Search(
	ctx context.Context,
	input SearchInput,
	embedder embeddings.Embedder,
	vectorDriver vector.Driver,
	logger *slog.Logger,
) (*SearchOutput, error) {
	if input.Query == "" {
		return nil, memory.NewInputError("query is required")
	}

	filter, err := ParseFilter(input.MemoryType)
	if err != nil {
		return nil, err
	}

	topK := input.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	logger.Debug("search request",
		"query", input.Query,
		"memory_type", input.MemoryType,
		"top_k", topK,
	)

	queryEmbedding, err := embedder.Embed(ctx, input.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %w", vector.ErrEmbedding, err)
	}

	results, err := vectorDriver.Query(ctx, queryEmbedding, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, result := range results {
		searchResults = append(searchResults, BuildSearchResult(result))
	}

	return &SearchOutput{
		Query:   input.Query,
		Results: searchResults,
		Count:   len(searchResults),
	}, nil
}

// BuildSearchResult converts a vector query result into a SearchResult.
func BuildSearchResult(result vector.QueryResult) SearchResult {
	modality, _ := result.Metadata[memory.MetadataTypeKey].(string)

	metadata := result.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return SearchResult{
		ID:        result.ID,
		Type:      memory.Modality(modality),
		Metadata:  metadata,
		Embedding: result.Embedding,
		Score:     result.Score,
	}
}

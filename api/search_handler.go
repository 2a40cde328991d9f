package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/memories/api/search"
	"github.com/papercomputeco/memories/pkg/memory"
)

// SearchResponse is the body of a successful GET /search.
type SearchResponse struct {
	Results []apisearch.SearchResult `json:"results"`
}

// handleSearchEndpoint handles GET /search requests.
// Query parameters:
//   - q (required): the search query text
//   - memory_type (optional): one of text, audio, image, video, spatial
//   - k (optional, default search.top_k): number of results to return
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return s.writeError(c, memory.NewInputError("q parameter is required"))
	}

	topK := s.config.TopK
	if kStr := c.Query("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed <= 0 {
			return s.writeError(c, memory.NewInputError("k must be a positive integer"))
		}
		topK = parsed
	}

	output, err := apisearch.Search(
		c.UserContext(),
		apisearch.SearchInput{
			Query:      query,
			MemoryType: c.Query("memory_type"),
			TopK:       topK,
		},
		s.config.Embedder,
		s.config.VectorDriver,
		s.logger,
	)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(SearchResponse{Results: output.Results})
}

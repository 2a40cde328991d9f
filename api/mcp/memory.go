package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memories/pkg/ingest"
)

var (
	saveTextToolName    = "save_text_memory"
	saveTextDescription = "Save a text memory so it can be found later with search_memories. Title defaults to \"Text Memory\" and tags default to [\"text\"]."
)

// SaveTextInput represents the input arguments for the save_text_memory tool.
type SaveTextInput struct {
	Content string   `json:"content" jsonschema:"the text to remember"`
	Title   string   `json:"title,omitempty" jsonschema:"optional short title"`
	Tags    []string `json:"tags,omitempty" jsonschema:"optional tags"`
}

// SaveTextOutput represents the structured output of a saved memory.
type SaveTextOutput struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// handleSaveText normalizes and stores a text memory.
func (s *Server) handleSaveText(ctx context.Context, _ *mcp.CallToolRequest, input SaveTextInput) (*mcp.CallToolResult, SaveTextOutput, error) {
	record, err := s.config.Normalizer.Text(ctx, ingest.TextInput{
		Title:   input.Title,
		Content: input.Content,
		Tags:    input.Tags,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid memory: %v", err)), SaveTextOutput{}, nil
	}

	if err := s.config.Service.Save(ctx, record); err != nil {
		s.config.Logger.Error("MCP save failed", "error", err)
		return errorResult(fmt.Sprintf("Failed to save memory: %v", err)), SaveTextOutput{}, nil
	}

	output := SaveTextOutput{
		ID:      record.ID,
		Message: "Text memory saved successfully",
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize result: %v", err)), SaveTextOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

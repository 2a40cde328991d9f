package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/memories/pkg/ingest"
	"github.com/papercomputeco/memories/pkg/memory"
	"github.com/papercomputeco/memories/pkg/vector"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SaveResponse acknowledges a stored memory.
type SaveResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// TextMemoryData echoes the resolved fields of a stored text memory.
type TextMemoryData struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Timestamp string   `json:"timestamp"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// writeError maps an error onto its HTTP status: input errors are 400,
// unknown records 404, anything else 500.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, memory.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, vector.ErrNotFound):
		status = fiber.StatusNotFound
	}

	if status == fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}

	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

// decodeBody parses a JSON request body into v.
func decodeBody(c *fiber.Ctx, v any) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return memory.NewInputError("invalid request body: " + err.Error())
	}
	return nil
}

// save persists a normalized record and writes the acknowledgement.
func (s *Server) save(c *fiber.Ctx, r *memory.Record, normErr error, resp SaveResponse) error {
	if normErr != nil {
		return s.writeError(c, normErr)
	}

	if err := s.service.Save(c.UserContext(), r); err != nil {
		return s.writeError(c, err)
	}

	s.logger.Debug("memory saved", "id", r.ID, "type", r.Type)

	return c.JSON(resp)
}

func (s *Server) handleTextMemory(c *fiber.Ctx) error {
	var in ingest.TextInput
	if err := decodeBody(c, &in); err != nil {
		return s.writeError(c, err)
	}

	r, err := s.normalizer.Text(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, err)
	}

	tags, _ := r.Metadata["tags"].([]string)
	return s.save(c, r, nil, SaveResponse{
		Message: "Text memory saved successfully",
		Data: TextMemoryData{
			Title:     r.Metadata["title"].(string),
			Content:   in.Content,
			Tags:      tags,
			Timestamp: r.Metadata["timestamp"].(string),
		},
	})
}

func (s *Server) handleAudioMemory(c *fiber.Ctx) error {
	var in ingest.AudioInput
	if err := decodeBody(c, &in); err != nil {
		return s.writeError(c, err)
	}

	r, err := s.normalizer.Audio(c.UserContext(), in)
	return s.save(c, r, err, SaveResponse{Message: "Audio memory saved successfully"})
}

func (s *Server) handleImageMemory(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return s.writeError(c, memory.NewInputError("No image file provided"))
	}

	f, err := fh.Open()
	if err != nil {
		return s.writeError(c, err)
	}
	defer f.Close()

	r, err := s.normalizer.Image(c.UserContext(), fh.Filename, f)
	return s.save(c, r, err, SaveResponse{Message: "Image memory saved successfully"})
}

func (s *Server) handleVideoMemory(c *fiber.Ctx) error {
	var in ingest.VideoInput
	if err := decodeBody(c, &in); err != nil {
		return s.writeError(c, err)
	}

	r, err := s.normalizer.Video(c.UserContext(), in)
	return s.save(c, r, err, SaveResponse{Message: "Video memory saved successfully"})
}

func (s *Server) handleSpatialMemory(c *fiber.Ctx) error {
	var in ingest.SpatialInput
	if err := decodeBody(c, &in); err != nil {
		return s.writeError(c, err)
	}

	r, err := s.normalizer.Spatial(c.UserContext(), in)
	return s.save(c, r, err, SaveResponse{Message: "Spatial memory saved successfully"})
}

// handleGetMemory returns a single memory by its id.
func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	r, err := s.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(r)
}

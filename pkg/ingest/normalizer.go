// Package ingest turns raw modality payloads into memory records and
// persists them.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memories/pkg/embeddings"
	"github.com/papercomputeco/memories/pkg/memory"
	"github.com/papercomputeco/memories/pkg/vector"
)

const (
	// DefaultTextTitle is used when a text memory arrives without a title.
	DefaultTextTitle = "Text Memory"

	// DefaultTextTag is the single tag applied when a text memory has none.
	DefaultTextTag = "text"
)

// TextInput is the payload of a text memory.
type TextInput struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Timestamp string   `json:"timestamp"`
}

// AudioInput is the payload of an audio memory.
type AudioInput struct {
	Transcription string `json:"transcription"`
}

// VideoInput is the payload of a video memory. VideoData is a URL or a
// base64 encoded clip.
type VideoInput struct {
	VideoData string `json:"videoData"`
}

// SpatialInput is the payload of a spatial memory.
type SpatialInput struct {
	SpatialData string `json:"spatialData"`
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithIDFunc overrides record ID generation.
func WithIDFunc(f func() string) Option {
	return func(n *Normalizer) {
		n.newID = f
	}
}

// WithClock overrides the clock used for default text timestamps.
func WithClock(f func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = f
	}
}

// Normalizer validates modality payloads and derives records with
// embeddings. It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	embedder embeddings.Embedder
	newID    func() string
	now      func() time.Time
}

// NewNormalizer creates a Normalizer that embeds content with embedder.
func NewNormalizer(embedder embeddings.Embedder, opts ...Option) *Normalizer {
	n := &Normalizer{
		embedder: embedder,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Text normalizes a text memory. Missing title, tags and timestamp are
// defaulted and the resolved values are stored.
func (n *Normalizer) Text(ctx context.Context, in TextInput) (*memory.Record, error) {
	if in.Content == "" {
		return nil, memory.NewInputError("No text content provided")
	}

	title := in.Title
	if title == "" {
		title = DefaultTextTitle
	}

	tags := in.Tags
	if len(tags) == 0 {
		tags = []string{DefaultTextTag}
	}

	timestamp := in.Timestamp
	if timestamp == "" {
		timestamp = n.now().UTC().Format(time.RFC3339)
	}

	return n.build(ctx, memory.Text, in.Content, map[string]any{
		"content":   in.Content,
		"title":     title,
		"tags":      tags,
		"timestamp": timestamp,
	})
}

// Audio normalizes an audio memory by its transcription.
func (n *Normalizer) Audio(ctx context.Context, in AudioInput) (*memory.Record, error) {
	if in.Transcription == "" {
		return nil, memory.NewInputError("No transcription")
	}

	return n.build(ctx, memory.Audio, in.Transcription, map[string]any{
		"transcription": in.Transcription,
	})
}

// Image normalizes an uploaded image. The bytes are stored base64 encoded
// and the embedding is derived from the filename.
func (n *Normalizer) Image(ctx context.Context, filename string, r io.Reader) (*memory.Record, error) {
	if filename == "" {
		return nil, memory.NewInputError("No image file provided")
	}

	var buf bytes.Buffer
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := io.Copy(enc, r); err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", filename, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding upload %s: %w", filename, err)
	}

	return n.build(ctx, memory.Image, "image:"+filename, map[string]any{
		"filename": filename,
		"base64":   buf.String(),
	})
}

// Video normalizes a video memory.
func (n *Normalizer) Video(ctx context.Context, in VideoInput) (*memory.Record, error) {
	if in.VideoData == "" {
		return nil, memory.NewInputError("No video data")
	}

	return n.build(ctx, memory.Video, "video:"+in.VideoData, map[string]any{
		"videoData": in.VideoData,
	})
}

// Spatial normalizes a spatial memory.
func (n *Normalizer) Spatial(ctx context.Context, in SpatialInput) (*memory.Record, error) {
	if in.SpatialData == "" {
		return nil, memory.NewInputError("No spatial data provided")
	}

	return n.build(ctx, memory.Spatial, in.SpatialData, map[string]any{
		"spatialData": in.SpatialData,
	})
}

func (n *Normalizer) build(ctx context.Context, modality memory.Modality, content string, metadata map[string]any) (*memory.Record, error) {
	embedding, err := n.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s memory: %w", vector.ErrEmbedding, modality, err)
	}

	return memory.NewRecord(n.newID(), modality, embedding, metadata), nil
}

// Package random implements a placeholder Embedder that returns uniformly
// random vectors. Output is neither deterministic nor meaningful; it exists so
// the ingestion and query paths can run without an embedding model.
package random

import (
	"context"
	"math/rand/v2"

	"github.com/papercomputeco/memories/pkg/embeddings"
)

// DefaultDimensions is the vector length used when none is configured.
const DefaultDimensions = 8

// Embedder returns random vectors of a fixed length.
type Embedder struct {
	dimensions uint
}

// NewEmbedder creates a random embedder. Zero dimensions selects
// DefaultDimensions.
func NewEmbedder(dimensions uint) *Embedder {
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed ignores text and returns a vector of values in [0, 1).
func (e *Embedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := make([]float32, e.dimensions)
	for i := range v {
		v[i] = rand.Float32()
	}
	return v, nil
}

// Dimensions returns the length of the vectors produced by Embed.
func (e *Embedder) Dimensions() uint {
	return e.dimensions
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)

// Package embeddings defines the pluggable embedding function used by the
// ingestion normalizers and the query path.
package embeddings

import "context"

// Embedder provides text embedding capabilities.
//
// The dimensionality of the returned vectors is fixed when the embedder is
// constructed so that every record in an index shares it.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

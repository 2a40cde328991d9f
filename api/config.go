// Package api provides the HTTP API for ingesting and searching memories.
package api

import (
	"github.com/papercomputeco/memories/pkg/embeddings"
	"github.com/papercomputeco/memories/pkg/eventstream"
	"github.com/papercomputeco/memories/pkg/vector"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// BodyLimit caps request bodies in bytes, bounding image uploads.
	// Zero uses fiber's default.
	BodyLimit int

	// TopK is the default number of search results.
	TopK int

	// Dimensions is the embedding length every stored record must have.
	Dimensions uint

	// VectorStore names the configured backend in emitted events.
	VectorStore string

	VectorDriver vector.Driver
	Embedder     embeddings.Embedder

	// Publisher receives memory persisted events. Optional.
	Publisher eventstream.Publisher

	// DisableMCP leaves the /mcp endpoint without tools.
	DisableMCP bool
}

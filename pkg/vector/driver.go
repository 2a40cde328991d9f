// Package vector provides interfaces and implementations for vector storage
// and similarity search over memory embeddings.
package vector

import "context"

// Document represents a stored item with its embedding and metadata.
type Document struct {
	// ID is a unique identifier for the document (the memory id).
	ID string

	// Embedding is the vector representation of the document content.
	Embedding []float32

	// Metadata holds the modality specific fields of the document. It always
	// carries the "type" key for documents written by the ingestion service.
	Metadata map[string]any
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Filter restricts which documents are eligible for ranking. A document is
// eligible when its metadata equals every key/value pair in the filter.
// A nil or empty Filter matches every document.
type Filter map[string]any

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Upsert stores documents with their embeddings.
	// If a document with the same ID already exists, implementers should
	// replace it, keeping embedding and metadata together. Backends ranking
	// by cosine similarity (qdrant) may store and return the embedding
	// normalized to unit length; its direction is preserved.
	Upsert(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding
	// among the documents matching filter.
	Query(ctx context.Context, embedding []float32, topK int, filter Filter) ([]QueryResult, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}

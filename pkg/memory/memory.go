// Package memory defines the memory record: the unit of storage for the
// memories service.
//
// A record is created by one of the modality normalizers in pkg/ingest,
// stored once in a vector.Driver, and never updated in place. Re-ingesting
// the same payload produces a new record with a new id.
package memory

import (
	"fmt"

	"github.com/papercomputeco/memories/pkg/vector"
)

// MetadataTypeKey is the metadata key that carries the record's modality.
const MetadataTypeKey = "type"

// Record is a single stored memory.
type Record struct {
	// ID is the opaque unique identifier generated at ingestion time.
	ID string `json:"id"`

	// Type is the modality of the record, fixed at creation.
	Type Modality `json:"type"`

	// Embedding is the vector representation of the record's content.
	Embedding []float32 `json:"embedding"`

	// Metadata holds the modality specific fields. It always includes "type".
	Metadata map[string]any `json:"metadata"`
}

// NewRecord builds a record of the given modality. The "type" metadata key
// is always set from modality, overriding anything already in metadata.
func NewRecord(id string, modality Modality, embedding []float32, metadata map[string]any) *Record {
	md := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		md[k] = v
	}
	md[MetadataTypeKey] = string(modality)

	return &Record{
		ID:        id,
		Type:      modality,
		Embedding: embedding,
		Metadata:  md,
	}
}

// Document converts the record into its vector store representation.
func (r *Record) Document() vector.Document {
	return vector.Document{
		ID:        r.ID,
		Embedding: r.Embedding,
		Metadata:  r.Metadata,
	}
}

// RecordFromDocument rebuilds a record from a stored document. The modality
// is recovered from the "type" metadata key.
func RecordFromDocument(doc vector.Document) (*Record, error) {
	raw, ok := doc.Metadata[MetadataTypeKey].(string)
	if !ok {
		return nil, fmt.Errorf("document %s has no %q metadata", doc.ID, MetadataTypeKey)
	}

	modality, err := ParseModality(raw)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", doc.ID, err)
	}

	return &Record{
		ID:        doc.ID,
		Type:      modality,
		Embedding: doc.Embedding,
		Metadata:  doc.Metadata,
	}, nil
}

package eventstream

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memories/pkg/memory"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemoryPersisted is emitted after a memory is written to the vector store.
	EventTypeMemoryPersisted = "memories.memory.persisted"
)

// MemoryPersistedEvent is a transport-neutral event payload for a persisted
// memory. It carries identifiers and metadata keys only, never payload bytes.
type MemoryPersistedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Memory        MemoryRef   `json:"memory"`
	MetadataKeys  []string    `json:"metadata_keys"`
	Source        EventSource `json:"source"`
}

// MemoryRef identifies the persisted memory.
type MemoryRef struct {
	ID   string          `json:"id"`
	Type memory.Modality `json:"type"`
}

// EventSource identifies where the memory was persisted.
type EventSource struct {
	VectorStore string `json:"vector_store,omitempty"`
}

// NewMemoryPersistedEvent builds the event for a stored record.
func NewMemoryPersistedEvent(r *memory.Record, source EventSource, now time.Time) *MemoryPersistedEvent {
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return &MemoryPersistedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMemoryPersisted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     now.UTC(),
		Memory: MemoryRef{
			ID:   r.ID,
			Type: r.Type,
		},
		MetadataKeys: keys,
		Source:       source,
	}
}

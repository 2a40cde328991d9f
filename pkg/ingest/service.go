package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/memories/pkg/eventstream"
	"github.com/papercomputeco/memories/pkg/eventstream/nop"
	"github.com/papercomputeco/memories/pkg/memory"
	"github.com/papercomputeco/memories/pkg/vector"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Driver vector.Driver

	// Publisher receives an event per stored record. Defaults to a no-op.
	Publisher eventstream.Publisher

	// Dimensions is the embedding length every record must have.
	// Zero disables the check.
	Dimensions uint

	// VectorStore names the backend in emitted events.
	VectorStore string

	Logger *slog.Logger
}

// Service persists normalized records.
type Service struct {
	driver     vector.Driver
	publisher  eventstream.Publisher
	dimensions uint
	source     eventstream.EventSource
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Service.
func NewService(c ServiceConfig) *Service {
	publisher := c.Publisher
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	return &Service{
		driver:     c.Driver,
		publisher:  publisher,
		dimensions: c.Dimensions,
		source:     eventstream.EventSource{VectorStore: c.VectorStore},
		logger:     c.Logger,
		now:        time.Now,
	}
}

// Save writes the record to the vector store as a single upsert and then
// emits a persisted event. An event that cannot be published is logged and
// does not fail the save.
func (s *Service) Save(ctx context.Context, r *memory.Record) error {
	if err := vector.CheckDimensions(r.Embedding, s.dimensions); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}

	if err := s.driver.Upsert(ctx, []vector.Document{r.Document()}); err != nil {
		return fmt.Errorf("storing %s memory %s: %w", r.Type, r.ID, err)
	}

	s.logger.Debug("memory stored",
		"id", r.ID,
		"type", r.Type,
	)

	event := eventstream.NewMemoryPersistedEvent(r, s.source, s.now())
	if err := s.publisher.PublishMemory(ctx, event); err != nil {
		s.logger.Error("failed to publish memory event",
			"id", r.ID,
			"event_id", event.EventID,
			"error", err,
		)
	}

	return nil
}

// Get fetches a single record by ID, returning vector.ErrNotFound when it
// does not exist.
func (s *Service) Get(ctx context.Context, id string) (*memory.Record, error) {
	docs, err := s.driver.Get(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("getting memory %s: %w", id, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("memory %s: %w", id, vector.ErrNotFound)
	}

	return memory.RecordFromDocument(docs[0])
}

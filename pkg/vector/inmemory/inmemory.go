// Package inmemory provides the fallback vector driver: an ordered,
// process-local list of documents with no persistence across restarts.
//
// Queries return matching documents in insertion order. The driver makes no
// similarity ranking guarantee and is meant for development and tests.
package inmemory

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/papercomputeco/memories/pkg/vector"
)

// DefaultTopK is used when Query is called with a non-positive topK.
const DefaultTopK = 10

// Config holds configuration for the in-memory driver.
type Config struct {
	// Dimensions, when non-zero, is enforced on every upserted embedding.
	Dimensions uint
}

// Driver implements vector.Driver using an in-memory slice.
type Driver struct {
	config Config
	logger *slog.Logger

	// mu guards docs and index
	mu sync.RWMutex

	// docs holds documents in insertion order
	docs []vector.Document

	// index maps a document ID to its position in docs
	index map[string]int
}

// NewDriver creates a new in-memory vector driver.
func NewDriver(c Config, logger *slog.Logger) *Driver {
	return &Driver{
		config: c,
		logger: logger,
		index:  make(map[string]int),
	}
}

// Upsert stores documents. A document whose ID is already present replaces
// the stored one in place, keeping its original position.
func (d *Driver) Upsert(_ context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if err := vector.CheckDimensions(doc.Embedding, d.config.Dimensions); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, doc := range docs {
		stored := cloneDocument(doc)
		if pos, ok := d.index[doc.ID]; ok {
			d.docs[pos] = stored
			continue
		}
		d.index[doc.ID] = len(d.docs)
		d.docs = append(d.docs, stored)
	}

	d.logger.Debug("upserted documents in memory", "count", len(docs))

	return nil
}

// Query returns up to topK documents matching filter, in insertion order.
// The embedding argument is not used for ranking.
func (d *Driver) Query(_ context.Context, _ []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.QueryResult, 0, min(topK, len(d.docs)))
	for _, doc := range d.docs {
		if len(results) == topK {
			break
		}
		if !filter.Matches(doc.Metadata) {
			continue
		}
		results = append(results, vector.QueryResult{Document: cloneDocument(doc)})
	}

	d.logger.Debug("queried memory store", "results", len(results))

	return results, nil
}

// Get retrieves documents by their IDs. Unknown IDs are skipped.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		pos, ok := d.index[id]
		if !ok {
			continue
		}
		docs = append(docs, cloneDocument(d.docs[pos]))
	}

	return docs, nil
}

// Delete removes documents by their IDs, preserving the order of the rest.
func (d *Driver) Delete(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	d.docs = slices.DeleteFunc(d.docs, func(doc vector.Document) bool {
		_, ok := remove[doc.ID]
		return ok
	})

	clear(d.index)
	for i, doc := range d.docs {
		d.index[doc.ID] = i
	}

	return nil
}

// Len returns the number of stored documents.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

// cloneDocument copies the embedding and the top level of the metadata so
// callers cannot mutate stored state.
func cloneDocument(doc vector.Document) vector.Document {
	return vector.Document{
		ID:        doc.ID,
		Embedding: slices.Clone(doc.Embedding),
		Metadata:  maps.Clone(doc.Metadata),
	}
}

var _ vector.Driver = (*Driver)(nil)

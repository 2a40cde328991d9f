package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/memories/pkg/vector"
)

// ErrMockDriver is returned by MockVectorDriver when a failure is configured.
var ErrMockDriver = errors.New("mock vector driver failure")

// MockVectorDriver is a test vector driver that records calls and returns
// configured results.
type MockVectorDriver struct {
	mu        sync.Mutex
	documents []vector.Document
	results   []vector.QueryResult

	// FailUpsert and FailQuery make the matching operation return ErrMockDriver.
	FailUpsert bool
	FailQuery  bool

	// LastTopK and LastFilter capture the arguments of the latest Query.
	LastTopK   int
	LastFilter vector.Filter
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make([]vector.Document, 0),
		results:   make([]vector.QueryResult, 0),
	}
}

// SetResults configures what Query returns.
func (m *MockVectorDriver) SetResults(results []vector.QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
}

// Documents returns every document passed to Upsert.
func (m *MockVectorDriver) Documents() []vector.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.Document(nil), m.documents...)
}

func (m *MockVectorDriver) Upsert(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpsert {
		return ErrMockDriver
	}
	m.documents = append(m.documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastTopK = topK
	m.LastFilter = filter
	if m.FailQuery {
		return nil, ErrMockDriver
	}
	if len(m.results) < topK {
		return m.results, nil
	}
	return m.results[:topK], nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []vector.Document
	for _, doc := range m.documents {
		for _, id := range ids {
			if doc.ID == id {
				out = append(out, doc)
			}
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, _ []string) error {
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

var _ vector.Driver = (*MockVectorDriver)(nil)

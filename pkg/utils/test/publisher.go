package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/memories/pkg/eventstream"
)

// ErrMockPublisher is returned by MockPublisher when Fail is set.
var ErrMockPublisher = errors.New("mock publisher failure")

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.MemoryPersistedEvent
	closed bool

	Fail bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishMemory(_ context.Context, event *eventstream.MemoryPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilMemoryEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return ErrMockPublisher
	}
	m.events = append(m.events, event)
	return nil
}

// Events returns the events published so far.
func (m *MockPublisher) Events() []*eventstream.MemoryPersistedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.MemoryPersistedEvent(nil), m.events...)
}

// Closed reports whether Close was called.
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

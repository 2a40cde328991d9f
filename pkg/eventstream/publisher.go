package eventstream

import "context"

// Publisher publishes memory events to an event stream backend.
type Publisher interface {
	PublishMemory(ctx context.Context, event *MemoryPersistedEvent) error
	Close() error
}

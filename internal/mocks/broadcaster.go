package mocks

import (
	"context"
	"sync"

	"github.com/taskhive/taskhive-api/internal/events"
)

// MockBroadcaster implements events.Broadcaster and records every event
// it receives, in order.
type MockBroadcaster struct {
	mu     sync.Mutex
	Events []events.Event
}

var _ events.Broadcaster = (*MockBroadcaster)(nil)

// Broadcast implements the events.Broadcaster interface.
func (m *MockBroadcaster) Broadcast(ctx context.Context, event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// Recorded returns a snapshot of the events broadcast so far.
func (m *MockBroadcaster) Recorded() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.Events))
	copy(out, m.Events)
	return out
}

// Names returns just the event names, in broadcast order.
func (m *MockBroadcaster) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Events))
	for i, e := range m.Events {
		names[i] = e.Name
	}
	return names
}

// Package events defines the domain events pushed to real-time
// subscribers and the broadcaster contract used to deliver them.
//
// Delivery is fire-and-forget: there is no acknowledgment, no replay of
// missed events, and no per-subscriber filtering. Every connected
// subscriber receives every event; authorization is not re-checked at
// broadcast time.
package events

import (
	"context"

	"github.com/taskhive/taskhive-api/internal/domain"
)

// Event names pushed over the notification channel.
const (
	// TaskCreated is broadcast with the full task after a successful create.
	TaskCreated = "taskCreated"

	// TaskUpdated is broadcast with the full post-merge task after an update.
	// Deletions broadcast nothing.
	TaskUpdated = "taskUpdated"

	// ViewCountUpdated is broadcast each time a shared task's view
	// counter advances.
	ViewCountUpdated = "viewCountUpdated"

	// Connected greets each new subscriber once on connect.
	Connected = "connected"
)

// Event couples an event name with the task it concerns. The payload is
// always the full task representation.
type Event struct {
	Name string       `json:"event"`
	Task *domain.Task `json:"payload"`
}

// Broadcaster delivers events to every currently connected subscriber.
type Broadcaster interface {
	// Broadcast pushes the event to all subscribers. It must not block
	// on slow subscribers and must not fail the calling operation; a
	// write that committed stays committed whether or not anyone was
	// listening.
	Broadcast(ctx context.Context, event Event)
}

// NopBroadcaster is a Broadcaster that drops every event. Useful in
// tests and tools that do not carry the real-time channel.
type NopBroadcaster struct{}

// Broadcast implements Broadcaster by doing nothing.
func (NopBroadcaster) Broadcast(ctx context.Context, event Event) {}

package events

import (
	"context"
	"sync"
	"time"
)

// Event types
const (
	EventSessionIssued     = "auth.session.issued"
	EventSessionRefreshed  = "auth.session.refreshed"
	EventAdminSynced       = "auth.permissions.synced"
	EventPermissionGranted = "auth.permission.granted"
	EventPermissionRevoked = "auth.permission.revoked"
)

// Event is an authorization-relevant change published for auditing
type Event struct {
	Type      string                 `json:"type"`
	UserID    string                 `json:"user_id"`
	ActorID   string                 `json:"actor_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// NoopPublisher drops every event; used when no broker is configured
type NoopPublisher struct{}

// Publish implements Publisher
func (NoopPublisher) Publish(context.Context, *Event) error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher
func (r *Recorder) Publish(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in publish order
func (r *Recorder) Types() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}

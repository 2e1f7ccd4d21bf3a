// Package events provides event management functionality.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	// Record lifecycle events
	RecordCreated EventType = "RECORD_CREATED"
	RecordUpdated EventType = "RECORD_UPDATED"
	RecordDeleted EventType = "RECORD_DELETED"

	// Connectivity and reconciliation events
	ConnectivityChanged EventType = "CONNECTIVITY_CHANGED"
	SyncStarted         EventType = "SYNC_STARTED"
	SyncCompleted       EventType = "SYNC_COMPLETED"
	SyncFailed          EventType = "SYNC_FAILED"
	ConflictDetected    EventType = "CONFLICT_DETECTED"
	ConflictResolved    EventType = "CONFLICT_RESOLVED"

	// Failure events
	StorageWriteFailed EventType = "STORAGE_WRITE_FAILED"
	ErrorOccurred      EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Handler is a callback invoked for each delivered event
type Handler func(event *Event)

// Bus is an in-process publish/subscribe hub for system events.
// Handlers are invoked synchronously on the emitting goroutine; handlers
// that may block should hand the event off to their own channel.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]Handler
	allHandlers []Handler
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for every event type.
// Used by the event stream to forward all activity to connected clients.
func (b *Bus) SubscribeAll(handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Emit publishes an event to all matching subscribers
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	typed := make([]Handler, len(b.handlers[eventType]))
	copy(typed, b.handlers[eventType])
	all := make([]Handler, len(b.allHandlers))
	copy(all, b.allHandlers)
	b.mu.RUnlock()

	for _, handler := range typed {
		handler(event)
	}
	for _, handler := range all {
		handler(event)
	}
}

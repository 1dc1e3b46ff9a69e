package session

import (
	"sync"
	"time"

	"github.com/archgraph/core/internal/models"
	"github.com/google/uuid"
)

type EventType string

const (
	EventNodeAdded       EventType = "node_added"
	EventNodeUpdated     EventType = "node_updated"
	EventNodeDeleted     EventType = "node_deleted"
	EventEdgeAdded       EventType = "edge_added"
	EventEdgeDeleted     EventType = "edge_deleted"
	EventRequirementsSet EventType = "requirements_set"
	EventCleared         EventType = "cleared"
	EventGraphLoaded     EventType = "graph_loaded"
)

// Event describes one completed session operation and the snapshot derived
// from it. Rejected is set when the store ignored the request.
type Event struct {
	Type      EventType
	StageID   string
	UserID    string
	Rejected  bool
	Snapshot  models.DesignSnapshot
	Timestamp time.Time
}

// Handler processes events. Handlers run synchronously on the publishing
// goroutine while the session is locked and must not call back into it.
type Handler func(Event)

// Bus fans session events out to subscribers.
//
// Thread Safety: Bus is safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	id := uuid.NewString()

	b.mu.Lock()
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

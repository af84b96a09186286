// Package event handles triggering of operations without direct dependency
package event

import (
	"context"
	"sync"

	"entropy/local-app/src/pkg/log"
)

// EventType represents the type of event
type EventType int

const (
	MindmapInitialized EventType = iota
	MindmapLoaded
	ThreadCreated
	ThreadUpdated
	ActiveThreadChanged
	StickyCreated
	StickyUpdated
	StickyDeleted
	ThemeChanged
	ViewChanged
)

var eventNames = map[EventType]string{
	MindmapInitialized:  "mindmap_initialized",
	MindmapLoaded:       "mindmap_loaded",
	ThreadCreated:       "thread_created",
	ThreadUpdated:       "thread_updated",
	ActiveThreadChanged: "active_thread_changed",
	StickyCreated:       "sticky_created",
	StickyUpdated:       "sticky_updated",
	StickyDeleted:       "sticky_deleted",
	ThemeChanged:        "theme_changed",
	ViewChanged:         "view_changed",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Structural reports whether the event changes persisted mindmap content.
func (t EventType) Structural() bool {
	switch t {
	case ThemeChanged, ViewChanged:
		return false
	}
	return true
}

// Event is a change published by the store. Data usually holds the id of the
// changed thread, sticky or mindmap.
type Event struct {
	Type EventType
	Data interface{}
}

// EventHandler is a function type for event handlers
type EventHandler func(Event)

// EventManager fans store changes out to subscribers. Each subscriber gets
// its events in publish order on its own goroutine, so a slow subscriber
// never blocks the store or the other subscribers.
type EventManager struct {
	mu       sync.RWMutex
	handlers map[EventType][]*subscriber
	logger   *log.Logger
}

// subscriber queues the events of one handler
type subscriber struct {
	handler EventHandler
	mu      sync.Mutex
	pending []Event
	running bool
}

func NewEventManager(logger *log.Logger) *EventManager {
	return &EventManager{handlers: make(map[EventType][]*subscriber), logger: logger}
}

// Subscribe adds a new event handler for a specific event type
func (em *EventManager) Subscribe(eventType EventType, handler EventHandler) {
	em.SubscribeMany(handler, eventType)
}

// SubscribeMany registers one handler for several event types. The handler
// sees events of all those types in the order they were published.
func (em *EventManager) SubscribeMany(handler EventHandler, types ...EventType) {
	sub := &subscriber{handler: handler}
	em.mu.Lock()
	for _, t := range types {
		em.handlers[t] = append(em.handlers[t], sub)
	}
	em.mu.Unlock()
}

// Publish queues the event for every handler of its type. It never blocks on
// a handler.
func (em *EventManager) Publish(e Event) {
	em.mu.RLock()
	subs := append([]*subscriber(nil), em.handlers[e.Type]...)
	em.mu.RUnlock()

	for _, sub := range subs {
		sub.enqueue(em, e)
	}
}

func (s *subscriber) enqueue(em *EventManager, e Event) {
	s.mu.Lock()
	s.pending = append(s.pending, e)
	start := !s.running
	s.running = true
	s.mu.Unlock()
	if start {
		go s.run(em)
	}
}

// run delivers queued events one at a time until the queue is empty
func (s *subscriber) run(em *EventManager) {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		e := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		em.deliver(s.handler, e)
	}
}

// deliver runs one handler, logging a panic instead of crashing the process
func (em *EventManager) deliver(h EventHandler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			em.logger.Error(context.Background(), "Panic in event handler", log.Fields{
				"event": e.Type.String(),
				"panic": r,
			})
		}
	}()
	h(e)
}

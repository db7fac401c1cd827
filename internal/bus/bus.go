/*
Package bus provides a small in-process event bus so the scheduler, the
performance recorder and the federated aggregator depend on topics
instead of each other.
*/
package bus

import "sync"

// Topics published by the scheduler.
const (
	SessionCompleted  = "sessionCompleted"
	BreakTaken        = "breakTaken"
	ExerciseCompleted = "exerciseCompleted"
)

// Handler receives a published event payload.
type Handler func(payload interface{})

// Bus dispatches events to subscribed handlers. Dispatch runs on the
// publisher's goroutine; handlers must not block.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers a payload to all handlers subscribed to the topic.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	handlers := b.handlers[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}

package sse

import (
	"sync"
)

// Event is a named payload delivered to the subscribers of one topic.
type Event struct {
	Topic string
	Event string
	Data  interface{}
}

// Hub fans events out to the subscribers of a topic. Topics are control room
// session ids; each open stream is one subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	bufferSize  int
}

// NewHub creates a hub whose subscriber channels buffer bufferSize events.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a subscriber for topic. initial, if non-nil, is queued
// on the channel before any published event. The returned cleanup removes it
// and closes the channel; it is safe to call after Drop and more than once.
func (h *Hub) Subscribe(topic string, initial *Event) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.bufferSize)
	if initial != nil {
		ev := *initial
		ev.Topic = topic
		ch <- ev
	}

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			subs, ok := h.subscribers[topic]
			if !ok {
				return
			}
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(h.subscribers, topic)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to every subscriber of topic and returns how many
// received it. Full channels are skipped so a slow stream never blocks a
// repaint.
func (h *Hub) Publish(topic string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Topic = topic
	delivered := 0
	for ch := range h.subscribers[topic] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// Drop delivers a final event to the subscribers of topic, then closes and
// forgets all of them.
func (h *Hub) Drop(topic string, final *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers[topic] {
		if final != nil {
			ev := *final
			ev.Topic = topic
			select {
			case ch <- ev:
			default:
			}
		}
		close(ch)
	}
	delete(h.subscribers, topic)
}

// SubscriberCount returns the number of subscribers of topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// TotalSubscribers returns the number of subscribers across all topics.
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

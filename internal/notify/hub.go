// Package notify propagates global active-module changes to connected clients.
package notify

import (
	"context"
	"sync"
	"time"
)

// Event announces that the global active module changed. ModuleID is nil when it was cleared.
type Event struct {
	ModuleID  *string   `json:"moduleId"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Publisher is implemented by Hub and RedisBridge.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

const subscriberBuffer = 8

// Hub fans events out to in-process subscribers. A subscriber that is not
// draining its channel misses events rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

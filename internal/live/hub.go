// Package live delivers change notifications to view subscribers.
// Consumers never receive deltas: a tick only means "reload the
// current snapshot", which keeps them idempotent under duplicate or
// out-of-order delivery.
package live

import (
	"fmt"
	"sync"
)

// Topic identifies one observable collection
type Topic string

// ReceiptsTopic is the receipt list of one owner
func ReceiptsTopic(ownerID int64) Topic {
	return Topic(fmt.Sprintf("receipts/%d", ownerID))
}

// StudentsTopic is the student list of one receipt
func StudentsTopic(ownerID int64, receiptID string) Topic {
	return Topic(fmt.Sprintf("students/%d/%s", ownerID, receiptID))
}

// StatsTopic is the global visitor counter
const StatsTopic Topic = "stats"

// Publisher is the write side of change notification
type Publisher interface {
	Publish(topic Topic)
}

// Hub is an in-process subscription registry. Subscribe returns a
// channel that carries an immediate initial tick and one tick per
// published change; bursts are coalesced.
type Hub struct {
	mu   sync.Mutex
	subs map[Topic]map[*Subscription]struct{}
}

// Subscription is a live listener handle. Unsubscribe is the only
// cancellation primitive.
type Subscription struct {
	C     <-chan struct{}
	ch    chan struct{}
	hub   *Hub
	topic Topic
	once  sync.Once
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[Topic]map[*Subscription]struct{})}
}

// Subscribe registers a listener on a topic. The returned channel is
// primed with one tick so the consumer loads current state right away.
func (h *Hub) Subscribe(topic Topic) *Subscription {
	ch := make(chan struct{}, 1)
	sub := &Subscription{C: ch, ch: ch, hub: h, topic: topic}

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	h.mu.Unlock()

	// Non-blocking: a Publish racing this registration may already
	// have primed the buffer, which serves the same purpose.
	select {
	case ch <- struct{}{}:
	default:
	}
	return sub
}

// Publish notifies every subscriber of the topic. Sends are
// non-blocking; a subscriber that already has a pending tick gets the
// burst coalesced into it.
func (h *Hub) Publish(topic Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[topic] {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

// Unsubscribe removes the listener and closes its channel
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.topic)
			}
		}
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Package events fans claim lifecycle events out to live subscribers
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeClaimSubmitted  = "claim.submitted"
	TypeClaimVerified   = "claim.verified"
	TypeClaimEngagement = "claim.engagement"
	TypeClaimTrending   = "claim.trending"
)

// Event is a single change notification about a claim
type Event struct {
	Type    string                 `json:"type"`
	ClaimID uuid.UUID              `json:"claim_id"`
	ActorID *uuid.UUID             `json:"actor_id,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	At      time.Time              `json:"at"`
}

// Publisher accepts events for delivery
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Subscription receives events until it is closed
type Subscription struct {
	C       chan Event
	dropped int64
	hub     *Hub
}

// Dropped returns how many events were skipped because the buffer was full
func (s *Subscription) Dropped() int64 {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.dropped
}

// Close detaches the subscription from its hub
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Hub is an in-process fan-out. Slow subscribers lose events rather than
// blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

// NewHub creates a hub whose subscriptions buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{C: make(chan Event, h.buffer), hub: h}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.C)
	}
}

// Subscribers returns the number of attached subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber without blocking
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.Deliver(ev)
	return nil
}

// Deliver is Publish without a context, used by bridges
func (h *Hub) Deliver(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.C <- ev:
		default:
			s.dropped++
		}
	}
}

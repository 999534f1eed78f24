package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub(4)
	a := hub.Subscribe()
	b := hub.Subscribe()
	defer a.Close()
	defer b.Close()

	claimID := uuid.New()
	require.NoError(t, hub.Publish(context.Background(), Event{Type: TypeClaimVerified, ClaimID: claimID}))

	for _, sub := range []*Subscription{a, b} {
		ev := <-sub.C
		assert.Equal(t, TypeClaimVerified, ev.Type)
		assert.Equal(t, claimID, ev.ClaimID)
		assert.False(t, ev.At.IsZero())
	}
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe()
	defer sub.Close()

	hub.Deliver(Event{Type: TypeClaimEngagement})
	hub.Deliver(Event{Type: TypeClaimEngagement})
	hub.Deliver(Event{Type: TypeClaimEngagement})

	assert.Equal(t, int64(2), sub.Dropped())
	assert.Len(t, sub.C, 1)
}

func TestSubscriptionClose(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe()
	assert.Equal(t, 1, hub.Subscribers())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers())

	_, open := <-sub.C
	assert.False(t, open)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
}

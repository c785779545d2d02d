package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestHubPreservesOrderWithoutBlocking(t *testing.T) {
	hub := NewHub[int]()
	_, ch, cancel := hub.Subscribe()
	defer cancel()

	// Nobody reads while publishing; the queue must absorb everything.
	for i := 0; i < 500; i++ {
		hub.Publish(i)
	}
	for i := 0; i < 500; i++ {
		assert.Equal(t, i, receive(t, ch))
	}
}

func TestHubCancelDoesNotAffectOtherListeners(t *testing.T) {
	hub := NewHub[string]()
	_, first, cancelFirst := hub.Subscribe()
	_, second, cancelSecond := hub.Subscribe()
	defer cancelSecond()
	require.Equal(t, 2, hub.Len())

	hub.Publish("a")
	assert.Equal(t, "a", receive(t, first))
	cancelFirst()
	cancelFirst()

	select {
	case _, ok := <-first:
		if ok {
			// a buffered value may still be drained; the channel must close after.
			_, ok = <-first
			assert.False(t, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled channel not closed")
	}

	hub.Publish("b")
	assert.Equal(t, "a", receive(t, second))
	assert.Equal(t, "b", receive(t, second))
	assert.Equal(t, 1, hub.Len())
}

func TestHubCloseClosesSubscribers(t *testing.T) {
	hub := NewHub[int]()
	_, ch, _ := hub.Subscribe()
	hub.Close()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after hub close")
	}

	_, late, cancel := hub.Subscribe()
	defer cancel()
	_, ok := <-late
	assert.False(t, ok)
	hub.Publish(1)
}

package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunningManager(buffer int) *Manager {
	m := NewManager(buffer)
	go m.Run()
	return m
}

func receive(t *testing.T, cl *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-cl.Receive():
		require.True(t, ok, "channel closed before a frame arrived")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Message{}
	}
}

func expectNothing(t *testing.T, cl *Client) {
	t.Helper()
	select {
	case msg, ok := <-cl.Receive():
		if ok {
			t.Fatalf("unexpected frame %q", msg.Event)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	m := newRunningManager(4)

	a := m.Connect()
	b := m.Connect()
	m.Subscribe(a, "event-1")
	m.Subscribe(b, "event-1")

	m.Publish("event-1", "token_created", map[string]int{"token_no": 1})

	for _, cl := range []*Client{a, b} {
		msg := receive(t, cl)
		assert.Equal(t, "token_created", msg.Event)
	}
}

func TestPublishScopedToEvent(t *testing.T) {
	m := newRunningManager(4)

	sub := m.Connect()
	other := m.Connect()
	m.Subscribe(sub, "event-1")
	m.Subscribe(other, "event-2")

	m.Publish("event-1", "token_created", nil)

	receive(t, sub)
	expectNothing(t, other)
}

func TestLateSubscriberGetsNoReplay(t *testing.T) {
	m := newRunningManager(4)

	early := m.Connect()
	m.Subscribe(early, "event-1")
	m.Publish("event-1", "token_created", nil)
	receive(t, early) // frame fully processed by the hub

	late := m.Connect()
	m.Subscribe(late, "event-1")
	expectNothing(t, late)

	// But the late subscriber sees everything from now on.
	m.Publish("event-1", "token_changed", nil)
	assert.Equal(t, "token_changed", receive(t, late).Event)
}

func TestSubscribeIdempotent(t *testing.T) {
	m := newRunningManager(4)

	cl := m.Connect()
	m.Subscribe(cl, "event-1")
	m.Subscribe(cl, "event-1")
	assert.Equal(t, 1, m.Subscribers("event-1"))

	m.Publish("event-1", "token_created", nil)
	receive(t, cl)
	expectNothing(t, cl) // one subscription, one frame
}

func TestDisconnectCleansEverySubscription(t *testing.T) {
	m := newRunningManager(4)

	cl := m.Connect()
	m.Subscribe(cl, "event-1")
	m.Subscribe(cl, "event-2")
	require.Equal(t, 1, m.Subscribers("event-1"))
	require.Equal(t, 1, m.Subscribers("event-2"))

	m.Disconnect(cl)
	assert.Equal(t, 0, m.Subscribers("event-1"))
	assert.Equal(t, 0, m.Subscribers("event-2"))

	// The client's channel is closed.
	_, ok := <-cl.Receive()
	assert.False(t, ok)
}

func TestUnsubscribeSingleEvent(t *testing.T) {
	m := newRunningManager(4)

	cl := m.Connect()
	m.Subscribe(cl, "event-1")
	m.Subscribe(cl, "event-2")
	m.Unsubscribe(cl, "event-1")

	assert.Equal(t, 0, m.Subscribers("event-1"))
	assert.Equal(t, 1, m.Subscribers("event-2"))
}

func TestSlowConsumerDoesNotBlockOthers(t *testing.T) {
	m := newRunningManager(1)

	slow := m.Connect()
	healthy := m.Connect()
	m.Subscribe(slow, "event-1")
	m.Subscribe(healthy, "event-1")

	// The slow client never drains; its one-slot buffer fills on the
	// first frame and later frames are dropped for it only.
	for i := 0; i < 10; i++ {
		m.Publish("event-1", "token_changed", i)
		receive(t, healthy)
	}

	// Exactly the buffered frame is left for the slow client.
	receive(t, slow)
	expectNothing(t, slow)
}

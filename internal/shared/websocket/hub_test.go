package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func waitClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, err := hub.Stats(context.Background())
		return err == nil && s.Clients == want
	}, time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return string(data)
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return ""
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("client %s got unexpected %s", c.ID, data)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRoomAndUserDelivery(t *testing.T) {
	hub := startHub(t)
	watcherA := NewClient(hub, nil, "1", "auction-a", "")
	bidderA := NewClient(hub, nil, "2", "auction-a", "user-2")
	watcherB := NewClient(hub, nil, "3", "auction-b", "user-3")
	inbox := NewClient(hub, nil, "4", "", "user-3")
	for _, c := range []*Client{watcherA, bidderA, watcherB, inbox} {
		hub.RegisterClient(c)
	}
	waitClients(t, hub, 4)

	s, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Clients: 4, Rooms: 2, Users: 2}, s)

	hub.BroadcastToRoom("auction-a", []byte("bid"))
	assert.Equal(t, "bid", receive(t, watcherA))
	assert.Equal(t, "bid", receive(t, bidderA))
	assertNothing(t, watcherB)

	hub.SendToUser("user-3", []byte("outbid"))
	assert.Equal(t, "outbid", receive(t, watcherB))
	assert.Equal(t, "outbid", receive(t, inbox))
	assertNothing(t, watcherA)

	hub.Reply(bidderA, []byte("error"))
	assert.Equal(t, "error", receive(t, bidderA))
	assertNothing(t, watcherA)
}

func TestUnregisterClosesSendOnce(t *testing.T) {
	hub := startHub(t)
	c := NewClient(hub, nil, "1", "auction-a", "user-1")
	hub.RegisterClient(c)
	waitClients(t, hub, 1)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	waitClients(t, hub, 0)

	_, ok := <-c.Send
	assert.False(t, ok)

	// replying to a gone client must not panic on the closed channel
	hub.Reply(c, []byte("late"))
	hub.BroadcastToRoom("auction-a", []byte("late"))
	waitClients(t, hub, 0)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := NewClient(hub, nil, "slow", "auction-a", "")
	fast := NewClient(hub, nil, "fast", "auction-a", "")
	hub.RegisterClient(slow)
	hub.RegisterClient(fast)
	waitClients(t, hub, 2)

	for i := 0; i <= sendBufferSize; i++ {
		hub.BroadcastToRoom("auction-a", []byte("tick"))
		receive(t, fast)
	}
	waitClients(t, hub, 1)

	for i := 0; i < sendBufferSize; i++ {
		<-slow.Send
	}
	_, ok := <-slow.Send
	assert.False(t, ok, "dropped client has its channel closed")
}

func TestShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() { hub.Run(ctx); close(done) }()

	c := NewClient(hub, nil, "1", "auction-a", "")
	hub.RegisterClient(c)
	waitClients(t, hub, 1)

	cancel()
	<-done
	_, ok := <-c.Send
	assert.False(t, ok)
}

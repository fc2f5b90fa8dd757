package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	c := NewClient(nil)
	hub.Register(c)
	return c
}

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev := <-c.Send:
		return ev
	default:
		t.Fatal("expected an event, channel is empty")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.Send:
		t.Fatalf("expected no event, got %s", ev.Type)
	default:
	}
}

func TestBroadcastToConversation(t *testing.T) {
	hub := NewHub()
	rooms := NewRooms(hub)

	a := newTestClient(t, hub)
	b := newTestClient(t, hub)
	outsider := newTestClient(t, hub)

	rooms.JoinConversation(a.ID, 10)
	rooms.JoinConversation(b.ID, 10)

	rooms.BroadcastToConversation(10, Event{Type: "ping"})

	assert.Equal(t, "ping", recvEvent(t, a).Type)
	assert.Equal(t, "ping", recvEvent(t, b).Type)
	assertNoEvent(t, outsider)
}

func TestBroadcastToConversationExcludes(t *testing.T) {
	hub := NewHub()
	rooms := NewRooms(hub)

	a := newTestClient(t, hub)
	b := newTestClient(t, hub)
	rooms.JoinConversation(a.ID, 10)
	rooms.JoinConversation(b.ID, 10)

	rooms.BroadcastToConversation(10, Event{Type: "typing:update"}, a.ID)

	assertNoEvent(t, a)
	assert.Equal(t, "typing:update", recvEvent(t, b).Type)
}

func TestBroadcastToUserReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	rooms := NewRooms(hub)

	tab1 := newTestClient(t, hub)
	tab2 := newTestClient(t, hub)
	other := newTestClient(t, hub)

	rooms.JoinUser(1, tab1.ID)
	rooms.JoinUser(1, tab2.ID)
	rooms.JoinUser(2, other.ID)

	rooms.BroadcastToUser(1, Event{Type: "conversation:updated"})

	assert.Equal(t, "conversation:updated", recvEvent(t, tab1).Type)
	assert.Equal(t, "conversation:updated", recvEvent(t, tab2).Type)
	assertNoEvent(t, other)
}

func TestRemoveConnectionLeavesAllRooms(t *testing.T) {
	hub := NewHub()
	rooms := NewRooms(hub)

	a := newTestClient(t, hub)
	rooms.JoinUser(1, a.ID)
	rooms.JoinConversation(a.ID, 10)

	rooms.RemoveConnection(a.ID)

	rooms.BroadcastToUser(1, Event{Type: "x"})
	rooms.BroadcastToConversation(10, Event{Type: "y"})
	assertNoEvent(t, a)
}

func TestLeaveConversation(t *testing.T) {
	hub := NewHub()
	rooms := NewRooms(hub)

	a := newTestClient(t, hub)
	rooms.JoinConversation(a.ID, 10)
	rooms.LeaveConversation(a.ID, 10)

	rooms.BroadcastToConversation(10, Event{Type: "ping"})
	assertNoEvent(t, a)
}

func TestBroadcastToAll(t *testing.T) {
	hub := NewHub()
	rooms := NewRooms(hub)

	a := newTestClient(t, hub)
	b := newTestClient(t, hub)

	rooms.BroadcastToAll(Event{Type: "users:online"})

	require.Equal(t, "users:online", recvEvent(t, a).Type)
	require.Equal(t, "users:online", recvEvent(t, b).Type)
}

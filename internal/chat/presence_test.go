package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceSnapshotDeduplicatesByUser(t *testing.T) {
	p := NewPresence()

	p.Join("conn-1", 1, "Alice")
	snapshot := p.Join("conn-2", 1, "Alice") // second tab

	assert.Equal(t, []OnlineUser{{UserID: 1, Name: "Alice"}}, snapshot)

	snapshot = p.Join("conn-3", 2, "Bob")
	assert.Equal(t, []OnlineUser{{UserID: 1, Name: "Alice"}, {UserID: 2, Name: "Bob"}}, snapshot)
}

func TestPresenceLeave(t *testing.T) {
	p := NewPresence()
	p.Join("conn-1", 1, "Alice")
	p.Join("conn-2", 1, "Alice")
	p.Join("conn-3", 2, "Bob")

	// One of Alice's tabs closing keeps her online.
	snapshot := p.Leave("conn-1")
	assert.Equal(t, []OnlineUser{{UserID: 1, Name: "Alice"}, {UserID: 2, Name: "Bob"}}, snapshot)

	snapshot = p.Leave("conn-2")
	assert.Equal(t, []OnlineUser{{UserID: 2, Name: "Bob"}}, snapshot)

	snapshot = p.Leave("conn-3")
	assert.Empty(t, snapshot)
}

func TestPresenceLeaveUnknownConnection(t *testing.T) {
	p := NewPresence()
	p.Join("conn-1", 1, "Alice")

	snapshot := p.Leave("conn-9")
	assert.Len(t, snapshot, 1)
}

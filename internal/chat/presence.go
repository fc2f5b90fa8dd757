package chat

import (
	"sort"
	"sync"
)

type presenceEntry struct {
	UserID uint
	Name   string
}

// Presence tracks which users have a live connection. Keyed by connection
// id, so one user with several tabs holds several entries; snapshots are
// de-duplicated by user id. Liveness-only state, lost on restart.
type Presence struct {
	mu      sync.RWMutex
	entries map[string]presenceEntry
}

func NewPresence() *Presence {
	return &Presence{entries: map[string]presenceEntry{}}
}

// Join records the connection and returns the updated snapshot.
func (p *Presence) Join(connID string, userID uint, name string) []OnlineUser {
	p.mu.Lock()
	p.entries[connID] = presenceEntry{UserID: userID, Name: name}
	p.mu.Unlock()
	return p.Snapshot()
}

// Leave drops the connection and returns the updated snapshot.
func (p *Presence) Leave(connID string) []OnlineUser {
	p.mu.Lock()
	delete(p.entries, connID)
	p.mu.Unlock()
	return p.Snapshot()
}

// Snapshot lists online users, one entry per user id regardless of how
// many connections they hold.
func (p *Presence) Snapshot() []OnlineUser {
	p.mu.RLock()
	byUser := make(map[uint]string, len(p.entries))
	for _, e := range p.entries {
		byUser[e.UserID] = e.Name
	}
	p.mu.RUnlock()

	users := make([]OnlineUser, 0, len(byUser))
	for id, name := range byUser {
		users = append(users, OnlineUser{UserID: id, Name: name})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

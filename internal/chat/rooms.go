package chat

import "sync"

// Rooms fans events out over the hub. Two room classes: a user room per
// user id (all of that user's connections, joined on identification) and a
// conversation room per conversation id (joined when the user opens that
// conversation's view).
type Rooms struct {
	mu            sync.RWMutex
	hub           *Hub
	users         map[uint]map[string]struct{}
	conversations map[uint]map[string]struct{}
}

func NewRooms(hub *Hub) *Rooms {
	return &Rooms{
		hub:           hub,
		users:         map[uint]map[string]struct{}{},
		conversations: map[uint]map[string]struct{}{},
	}
}

// JoinUser adds the connection to its user's room.
func (r *Rooms) JoinUser(userID uint, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users[userID] == nil {
		r.users[userID] = map[string]struct{}{}
	}
	r.users[userID][connID] = struct{}{}
}

func (r *Rooms) JoinConversation(connID string, conversationID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conversations[conversationID] == nil {
		r.conversations[conversationID] = map[string]struct{}{}
	}
	r.conversations[conversationID][connID] = struct{}{}
}

func (r *Rooms) LeaveConversation(connID string, conversationID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.conversations[conversationID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.conversations, conversationID)
		}
	}
}

// RemoveConnection drops the connection from every room it joined.
func (r *Rooms) RemoveConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, set := range r.users {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.users, userID)
		}
	}
	for convID, set := range r.conversations {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.conversations, convID)
		}
	}
}

// BroadcastToConversation emits to every connection currently in the
// conversation room, minus any excluded connection ids.
func (r *Rooms) BroadcastToConversation(conversationID uint, ev Event, exclude ...string) {
	skip := map[string]struct{}{}
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	r.mu.RLock()
	ids := make([]string, 0, len(r.conversations[conversationID]))
	for connID := range r.conversations[conversationID] {
		if _, ok := skip[connID]; !ok {
			ids = append(ids, connID)
		}
	}
	r.mu.RUnlock()

	r.deliver(ids, ev)
}

// BroadcastToUser emits to every live connection of one user.
func (r *Rooms) BroadcastToUser(userID uint, ev Event) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.users[userID]))
	for connID := range r.users[userID] {
		ids = append(ids, connID)
	}
	r.mu.RUnlock()

	r.deliver(ids, ev)
}

// BroadcastToAll emits to every registered connection; used only for
// presence snapshots.
func (r *Rooms) BroadcastToAll(ev Event) {
	for _, c := range r.hub.All() {
		c.Deliver(ev)
	}
}

func (r *Rooms) deliver(connIDs []string, ev Event) {
	for _, id := range connIDs {
		if c, ok := r.hub.Get(id); ok {
			c.Deliver(ev)
		}
	}
}

package hub

import (
	"crypto/sha1"
	"encoding/binary"
	"log"
	"sync"

	"github.com/MBSciTech/EcoChat/internal/event"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

// roomBucket holds a shard of live rooms.
type roomBucket struct {
	sync.RWMutex
	rooms map[string]*roomState
}

// roomState is the live side of one group: its subscribed connections and
// its ephemeral typing set. mu guards both; writeMu is the room's
// serialization point for message-mutating operations so concurrent edits
// of the same message never interleave.
type roomState struct {
	mu          sync.RWMutex
	subscribers map[string]*Client
	typing      map[string]struct{}

	writeMu sync.Mutex
}

func newRoomState() *roomState {
	return &roomState{
		subscribers: make(map[string]*Client),
		typing:      make(map[string]struct{}),
	}
}

func getShard(groupID string) uint32 {
	if groupID == "" {
		return 0
	}

	h := sha1.Sum([]byte(groupID))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

// room returns the live state for a group, creating it when absent.
func (h *Hub) room(groupID string) *roomState {
	b := h.shards[getShard(groupID)]

	b.RLock()
	room, ok := b.rooms[groupID]
	b.RUnlock()
	if ok {
		return room
	}

	b.Lock()
	defer b.Unlock()
	if room, ok = b.rooms[groupID]; ok {
		return room
	}
	room = newRoomState()
	b.rooms[groupID] = room
	return room
}

// peekRoom returns the live state for a group without creating it.
func (h *Hub) peekRoom(groupID string) *roomState {
	b := h.shards[getShard(groupID)]
	b.RLock()
	defer b.RUnlock()
	return b.rooms[groupID]
}

// Subscribe adds the client's connection to the group's broadcast set.
func (h *Hub) Subscribe(groupID string, c *Client) {
	room := h.room(groupID)

	room.mu.Lock()
	room.subscribers[c.userID] = c
	room.mu.Unlock()

	c.trackRoom(groupID)
}

// Unsubscribe removes the client from the group's broadcast set and drops
// the room when it empties. Unsubscribing a non-subscriber is a no-op.
// The removal only applies while this client still owns the slot, so a
// superseding reconnect is untouched.
func (h *Hub) Unsubscribe(groupID string, c *Client) {
	c.untrackRoom(groupID)

	room := h.peekRoom(groupID)
	if room == nil {
		return
	}

	room.mu.Lock()
	if current, ok := room.subscribers[c.userID]; ok && current == c {
		delete(room.subscribers, c.userID)
	}
	empty := len(room.subscribers) == 0
	room.mu.Unlock()

	if empty {
		b := h.shards[getShard(groupID)]
		b.Lock()
		if r, ok := b.rooms[groupID]; ok {
			r.mu.RLock()
			stillEmpty := len(r.subscribers) == 0
			r.mu.RUnlock()
			if stillEmpty {
				delete(b.rooms, groupID)
			}
		}
		b.Unlock()
	}
}

// -----------------------------------------------------------------
// Typing indicator tracking
// -----------------------------------------------------------------

// StartTyping adds the user to the group's typing set. Returns false when
// the user was already typing (idempotent).
func (h *Hub) StartTyping(groupID, userID string) bool {
	room := h.room(groupID)

	room.mu.Lock()
	defer room.mu.Unlock()
	if _, ok := room.typing[userID]; ok {
		return false
	}
	room.typing[userID] = struct{}{}
	return true
}

// StopTyping removes the user from the group's typing set. Removing an
// absent entry is a silent no-op: stop may race between message-send,
// explicit stop and disconnect. Returns true when the user was typing.
func (h *Hub) StopTyping(groupID, userID string) bool {
	room := h.peekRoom(groupID)
	if room == nil {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if _, ok := room.typing[userID]; !ok {
		return false
	}
	delete(room.typing, userID)
	return true
}

// IsTyping reports whether the user is in the group's typing set.
func (h *Hub) IsTyping(groupID, userID string) bool {
	room := h.peekRoom(groupID)
	if room == nil {
		return false
	}

	room.mu.RLock()
	defer room.mu.RUnlock()
	_, ok := room.typing[userID]
	return ok
}

// -----------------------------------------------------------------
// Fan-out
// -----------------------------------------------------------------

// snapshot collects the group's subscribers while holding the read lock,
// skipping exceptUserID when non-empty. Delivery happens lock-free.
func (h *Hub) snapshot(groupID, exceptUserID string) []*Client {
	room := h.peekRoom(groupID)
	if room == nil {
		return nil
	}

	room.mu.RLock()
	defer room.mu.RUnlock()

	clients := make([]*Client, 0, len(room.subscribers))
	for userID, c := range room.subscribers {
		if exceptUserID != "" && userID == exceptUserID {
			continue
		}
		clients = append(clients, c)
	}
	return clients
}

// ToRoom delivers an event to every subscriber of the group, the sender
// included, so a sender sees its own action exactly as recipients do.
func (h *Hub) ToRoom(groupID string, ev event.WsEvent) {
	h.deliver(groupID, h.snapshot(groupID, ""), ev)
}

// ToRoomExcept delivers an event to every subscriber but the sender.
func (h *Hub) ToRoomExcept(groupID, senderID string, ev event.WsEvent) {
	h.deliver(groupID, h.snapshot(groupID, senderID), ev)
}

// ToParticipant delivers an event directly to a user's live connection,
// wherever it is. A no-op when the user is offline.
func (h *Hub) ToParticipant(userID string, ev event.WsEvent) bool {
	c, ok := h.registry.ClientFor(userID)
	if !ok {
		return false
	}
	if !c.SafeSend(ev, sendTimeout) {
		log.Printf("failed to deliver direct event to user %s", userID)
		return false
	}
	return true
}

func (h *Hub) deliver(groupID string, clients []*Client, ev event.WsEvent) {
	for _, c := range clients {
		if c.SafeSend(ev, sendTimeout) {
			continue
		}

		// egress full -> apply policy
		log.Printf("egress full for client %s in group %s", c.ID, groupID)
		if kickOnFull {
			// Unregister (safe async)
			select {
			case h.unregister <- c:
			default:
			}
		}
	}
}

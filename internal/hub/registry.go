package hub

import (
	"context"
	"sync"
	"time"

	"github.com/MBSciTech/EcoChat/internal/model"
	"go.uber.org/zap"
)

const presenceTimeout = 3 * time.Second

// PresenceStore persists presence flips. Failures are best-effort: the
// registry logs them and keeps its in-memory state.
type PresenceStore interface {
	UpdatePresence(ctx context.Context, userID, status string, lastSeen time.Time) error
}

// Registry maps a user to its single live connection. Registering a new
// connection for a user supersedes the previous one.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[string]*Client
	presence PresenceStore
	logger   *zap.Logger
}

func NewRegistry(presence PresenceStore, logger *zap.Logger) *Registry {
	return &Registry{
		byUser:   make(map[string]*Client),
		presence: presence,
		logger:   logger,
	}
}

// Register installs the client as the user's live connection and flips
// persisted presence to online. The superseded client, if any, is
// returned so the hub can tear it down.
func (r *Registry) Register(c *Client) *Client {
	r.mu.Lock()
	prev := r.byUser[c.userID]
	r.byUser[c.userID] = c
	r.mu.Unlock()

	r.persistPresence(c.userID, model.StatusOnline)
	return prev
}

// Unregister removes the mapping only while this client still owns it,
// so a reconnect that already superseded it is untouched. Returns true
// when the mapping was removed.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	current, ok := r.byUser[c.userID]
	if !ok || current != c {
		r.mu.Unlock()
		return false
	}
	delete(r.byUser, c.userID)
	r.mu.Unlock()

	r.persistPresence(c.userID, model.StatusOffline)
	return true
}

// ClientFor resolves the live connection of a user, if any.
func (r *Registry) ClientFor(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// IsOnline reports whether the user has a live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// OnlineUserIDs snapshots every connected user id.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *Registry) persistPresence(userID, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	if err := r.presence.UpdatePresence(ctx, userID, status, time.Now().UTC()); err != nil {
		r.logger.Warn("presence persist failed",
			zap.String("user_id", userID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

package hub

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/MBSciTech/EcoChat/internal/auth"
	"github.com/MBSciTech/EcoChat/internal/event"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

// EventHandler processes one inbound event for one client.
type EventHandler func(ev event.WsEvent, c *Client)

type Hub struct {
	shards   [shardCount]*roomBucket
	registry *Registry
	tokens   *auth.TokenManager

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	handler EventHandler
	origins map[string]struct{}
	logger  *zap.Logger

	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func NewHub(presence PresenceStore, tokens *auth.TokenManager, allowedOrigins []string, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry:   NewRegistry(presence, logger),
		tokens:     tokens,
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		origins:    make(map[string]struct{}, len(allowedOrigins)),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	for _, origin := range allowedOrigins {
		h.origins[origin] = struct{}{}
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &roomBucket{
			rooms: make(map[string]*roomState),
		}
	}

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}

					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// SetHandler installs the dispatcher for inbound events. Must be called
// before the first connection is served.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// Registry exposes the connection registry to collaborating services.
func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	if h.handler == nil {
		log.Printf("no handler installed, dropping event %s", ev.Event)
		return
	}
	h.handler(ev, c)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// addClient installs the connection in the registry. Any superseded
// connection for the same user is torn down so only the new endpoint
// receives notices.
func (h *Hub) addClient(c *Client) {
	prev := h.registry.Register(c)
	if prev != nil && prev != c {
		h.logger.Info("connection superseded",
			zap.String("user_id", c.userID),
			zap.String("old_client", prev.ID),
			zap.String("new_client", c.ID),
		)
		h.teardown(prev)
	}
}

// removeClient runs the full disconnect teardown for a connection.
func (h *Hub) removeClient(c *Client) {
	h.teardown(c)
	if h.registry.Unregister(c) {
		h.logger.Info("client disconnected", zap.String("user_id", c.userID), zap.String("client", c.ID))
	}
}

// teardown detaches the connection from every room it joined, clearing
// typing state with the matching broadcasts, and closes it. Every
// sub-step runs even if an earlier one fails; nothing escalates.
func (h *Hub) teardown(c *Client) {
	for _, groupID := range c.joinedRooms() {
		if h.StopTyping(groupID, c.userID) {
			h.ToRoomExcept(groupID, c.userID, typingStopped(groupID, c.userID))
		}
		h.Unsubscribe(groupID, c)
	}
	c.Close()
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()

		// Close all client connections
		for _, shard := range h.shards {
			shard.RLock()
			for _, room := range shard.rooms {
				room.mu.RLock()
				for _, client := range room.subscribers {
					client.Close()
				}
				room.mu.RUnlock()
			}
			shard.RUnlock()
		}

		close(h.inbound)
		h.wg.Wait()
	})
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	_, ok := h.origins[r.Header.Get("Origin")]
	return ok
}

// ServeWS authenticates the upgrade request and registers the connection.
// The session token travels as a query parameter because browser WebSocket
// clients cannot set headers.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Validate(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	upgrader := websocketUpgrader
	upgrader.CheckOrigin = h.checkOrigin

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	RegisterClient(claims.UserID, conn, h)
}

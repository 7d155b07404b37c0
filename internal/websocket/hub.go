// Package websocket pushes note change events to connected sessions. The
// hub subscribes to a user's notification topic while that user has at
// least one open session and fans events out to every session; clients
// re-query over HTTP when they receive a hint.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ilmarsk/notehub/internal/logger"
	"github.com/ilmarsk/notehub/internal/notify"
)

// Hub tracks connected sessions per user and their bus subscriptions.
type Hub struct {
	bus *notify.Bus

	mu      sync.RWMutex
	users   map[uint]map[*Client]bool
	cancels map[uint]func()

	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
}

// NewHub creates a hub wired to the given bus.
func NewHub(bus *notify.Bus) *Hub {
	return &Hub{
		bus:        bus,
		users:      make(map[uint]map[*Client]bool),
		cancels:    make(map[uint]func()),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registration events until ctx is cancelled, then drops
// every session and subscription and returns. Call it once in its own
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// shutdown cancels every subscription and closes every session's send
// channel so their write pumps exit.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.done)

	for userID, cancel := range h.cancels {
		cancel()
		delete(h.cancels, userID)
	}
	for userID, sessions := range h.users {
		for client := range sessions {
			close(client.Send)
		}
		delete(h.users, userID)
	}

	logger.Debugf("websocket hub stopped")
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]bool)

		// First session for this user: start listening for change events.
		events, cancel := h.bus.Subscribe(notify.NoteTopic(client.UserID))
		h.cancels[client.UserID] = cancel
		go h.pump(client.UserID, events)
	}
	h.users[client.UserID][client] = true

	logger.WithField("user_id", client.UserID).Debug("websocket session registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.users[client.UserID]
	if !ok || !sessions[client] {
		return
	}

	delete(sessions, client)
	close(client.Send)

	if len(sessions) == 0 {
		delete(h.users, client.UserID)
		if cancel, ok := h.cancels[client.UserID]; ok {
			cancel()
			delete(h.cancels, client.UserID)
		}
	}

	logger.WithField("user_id", client.UserID).Debug("websocket session unregistered")
}

// pump forwards bus events for one user to all their open sessions. It
// exits when the subscription is cancelled.
func (h *Hub) pump(userID uint, events <-chan notify.Event) {
	for evt := range events {
		message, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("failed to marshal event for user %d: %v", userID, err)
			continue
		}
		h.broadcastToUser(userID, message)
	}
}

func (h *Hub) broadcastToUser(userID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.users[userID] {
		select {
		case client.Send <- message:
		default:
			logger.Warnf("session send buffer full for user %d, dropping message", userID)
		}
	}
}

// SessionCount returns the number of open sessions for a user.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// handlers/events.go - Live gamification event push
package handlers

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"coursequest/middleware"
)

// Event is a single gamification notification pushed to a client, used
// for level-up, streak and achievement animations.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

// EventHub fans gamification events out to each user's open sockets.
// It implements services.Notifier; the orchestrator publishes only after
// the database transaction committed.
type EventHub struct {
	mu    sync.RWMutex
	conns map[uint]map[*websocket.Conn]chan Event
}

func NewEventHub() *EventHub {
	return &EventHub{conns: make(map[uint]map[*websocket.Conn]chan Event)}
}

// Notify queues an event for every socket the user has open. Slow or
// dead clients are skipped rather than blocking the caller.
func (h *EventHub) Notify(userID uint, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.conns[userID] {
		select {
		case ch <- Event{Type: event, Payload: payload, SentAt: time.Now().UTC()}:
		default:
		}
	}
}

func (h *EventHub) register(userID uint, conn *websocket.Conn) chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]chan Event)
	}
	h.conns[userID][conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	if chans, ok := h.conns[userID]; ok {
		if ch, ok := chans[conn]; ok {
			close(ch)
			delete(chans, conn)
		}
		if len(chans) == 0 {
			delete(h.conns, userID)
		}
	}
	h.mu.Unlock()
}

// UpgradeRequired rejects non-websocket requests on the ws route.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		if userID, err := middleware.GetUserID(c); err == nil {
			c.Locals("wsUserId", userID)
		}
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// NotificationSocket streams gamification events to the authenticated
// user until the client disconnects.
func (h *EventHub) NotificationSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("wsUserId").(uint)
		if !ok {
			conn.WriteJSON(fiber.Map{"error": "User not authenticated"})
			conn.Close()
			return
		}

		ch := h.register(userID, conn)
		defer h.unregister(userID, conn)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				// Drain client frames; we only push.
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					log.Printf("ws write to user %d failed: %v", userID, err)
					return
				}
			}
		}
	})
}

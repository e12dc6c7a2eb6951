// Package realtime broadcasts engine events (new submissions, help
// requests) to connected websocket clients such as the notification bot.
package realtime

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

const sendBufferSize = 16

// Event is one broadcast message.
type Event struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// Hub fans broadcast events out to every subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	logger      zerolog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
		logger:      logger.With().Str("component", "realtime_hub").Logger(),
	}
}

// Subscribe registers a listener. The returned cancel function must be
// called to release it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, sendBufferSize)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers an event to every subscriber. Slow subscribers with a
// full buffer are skipped rather than blocking the sender.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Warn().Str("type", event.Type).Msg("dropping event for slow subscriber")
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Serve pumps broadcast events into a websocket connection until the peer
// disconnects. Inbound messages are drained and ignored; the socket is a
// one-way notification stream.
func (h *Hub) Serve(conn *websocket.Conn) {
	events, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug().Int("subscribers", h.Count()).Msg("websocket client connected")

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-done:
			return
		}
	}
}

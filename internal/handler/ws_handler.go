package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/nauqh/cseassessment/internal/realtime"
)

// WebsocketHandler upgrades connections and streams hub events to proctor
// dashboards.
type WebsocketHandler struct {
	hub    *realtime.Hub
	logger zerolog.Logger
}

// NewWebsocketHandler builds a websocket handler instance.
func NewWebsocketHandler(hub *realtime.Hub, logger zerolog.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		hub:    hub,
		logger: logger.With().Str("component", "ws_handler").Logger(),
	}
}

// Register attaches the websocket route to the provided router group.
func (h *WebsocketHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		h.logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket connected")
		h.hub.Serve(conn)
	}))
}

package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/transport/ws"
)

// WebSocket upgrades HTTP connections and hands them to the room
// engine's transport.
type WebSocket struct {
	hub      *ws.Hub
	handler  *ws.Handler
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocket creates the upgrade handler. allowedOrigins of
// ["*"] disables the origin check.
func NewWebSocket(hub *ws.Hub, h *ws.Handler, allowedOrigins []string, logger *zap.Logger) *WebSocket {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &WebSocket{
		hub:     hub,
		handler: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		logger: logger,
	}
}

// Serve upgrades the request and runs the connection pumps.
func (h *WebSocket) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}

	client := ws.NewClient(h.hub, conn, h.handler, h.logger)
	h.hub.Register(client)
	h.logger.Info("client connected", zap.String("connection_id", client.ID))

	if room := c.QueryParam("room"); room != "" {
		h.handler.Join(context.Background(), client, room,
			c.QueryParam("username"), c.QueryParam("language"), c.QueryParam("voiceId"))
	}

	// The request context dies when this handler returns; the
	// connection must outlive it.
	go client.WritePump()
	go client.ReadPump(context.Background())
	return nil
}

package events

import (
	"net/http"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const sendBufferSize = 16

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer; the feed carries no PHI, only
	// opaque ids.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades provider dashboard connections onto the hub.
type Handler struct {
	hub *Hub
}

// NewHandler creates a websocket handler over the hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes registers the feed endpoint.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/assessments", h.Serve)
}

// Serve upgrades the connection and pumps events until the client leaves.
func (h *Handler) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed")
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, sendBufferSize),
	}
	h.hub.Register(client)

	go func() {
		defer func() {
			h.hub.Unregister(client)
			conn.Close()
		}()
		// Inbound messages are ignored; reading detects disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for data := range client.Send {
		if err := conn.WriteMessage(gorillaws.TextMessage, data); err != nil {
			break
		}
	}
	conn.Close()
	return nil
}

package handlers

import (
	"net/http"
	"time"

	"open-factcheck/internal/events"
	"open-factcheck/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// EventsHandler streams claim events to websocket clients
type EventsHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewEventsHandler creates a websocket event stream. Origin checks are left
// to the CORS allow list, so any origin may connect.
func NewEventsHandler(hub *events.Hub, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With("handler", "EventsHandler"),
	}
}

// Stream handles GET /ws/events. An optional claim_id query parameter limits
// the stream to one claim.
func (h *EventsHandler) Stream(c *gin.Context) {
	var only uuid.UUID
	if raw := c.Query("claim_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, h.log, errBadClaimFilter)
			return
		}
		only = id
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe()
	defer sub.Close()
	h.log.Debug("Websocket client connected", "subscribers", h.hub.Subscribers())

	// reader: handles pongs and notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if only != uuid.Nil && ev.ClaimID != only {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

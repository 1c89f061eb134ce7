package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
)

// WSHub broadcasts alerts to connected websocket clients, e.g. a live
// dashboard. A client whose write fails is dropped; clients are expected to
// reconnect.
type WSHub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger zerolog.Logger
}

// NewWSHub creates an empty hub.
func NewWSHub(logger zerolog.Logger) *WSHub {
	return &WSHub{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Add registers a client connection. The hub owns it from here on.
func (h *WSHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

// Remove drops a client connection and closes it.
func (h *WSHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Name implements Channel.
func (h *WSHub) Name() string {
	return "websocket"
}

// Send implements Channel by broadcasting the alert to every client.
func (h *WSHub) Send(ctx context.Context, a *domain.SellAlert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(deadline)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn().Err(err).Msg("dropping websocket client after failed write")
			delete(h.conns, conn)
			conn.Close()
		}
	}
	return nil
}

// Close drops every client.
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		delete(h.conns, conn)
		conn.Close()
	}
}

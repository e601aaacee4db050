package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"aquaview.dev/monitor/internal/ingest"
	"aquaview.dev/monitor/pkg/metrics"
)

// hub maintains the set of connected websocket clients and broadcasts
// consolidated views to them.
type hub struct {
	logger     *slog.Logger
	metrics    *metrics.DashboardMetrics // Optional metrics
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub(logger *slog.Logger, m *metrics.DashboardMetrics) *hub {
	return &hub{
		logger:     logger,
		metrics:    m,
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*wsClient]struct{}),
	}
}

// run processes register, unregister and broadcast events until the context
// is canceled.
func (h *hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Debug("websocket client registered", "clients", count)
			if h.metrics != nil {
				h.metrics.WebsocketClients.Set(float64(count))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Debug("websocket client unregistered", "clients", count)
			if h.metrics != nil {
				h.metrics.WebsocketClients.Set(float64(count))
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()

			if h.metrics != nil {
				h.metrics.WebsocketBroadcasts.Inc()
				h.metrics.WebsocketClients.Set(float64(count))
			}
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	if h.metrics != nil {
		h.metrics.WebsocketClients.Set(0)
	}
}

// broadcastView serializes a consolidated view and queues it for delivery to
// every connected client.
func (h *hub) broadcastView(view ingest.View) {
	message, err := json.Marshal(map[string]any{
		"type":    "view",
		"payload": view,
	})
	if err != nil {
		h.logger.Error("failed to marshal view for broadcast", "error", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue full, dropping view")
	}
}

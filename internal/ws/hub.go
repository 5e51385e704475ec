// Package ws fans CV change events out to connected admin websocket clients.
package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ConnGauge tracks open connections. *metrics.Metrics satisfies it.
type ConnGauge interface {
	WSConnected()
	WSDisconnected()
}

type Hub struct {
	clients   map[*Client]struct{}
	broadcast chan []byte
	closed    bool
	mutex     sync.RWMutex
	logger    *zap.Logger
	gauge     ConnGauge
}

func NewHub(logger *zap.Logger, gauge ConnGauge) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan []byte, 1024),
		logger:    logger,
		gauge:     gauge,
	}
}

// Run delivers broadcasts until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			h.closed = true
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mutex.Unlock()
			h.logger.Info("ws hub stopped")
			return

		case message := <-h.broadcast:
			h.mutex.Lock()
			total := len(h.clients)
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.logger.Warn("ws client too slow, disconnecting")
					h.dropLocked(c)
				}
			}
			h.mutex.Unlock()
			h.logger.Debug("ws broadcast", zap.Int("clients", total))
		}
	}
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	if h == nil || client == nil {
		return false
	}
	h.mutex.Lock()
	if h.closed {
		h.mutex.Unlock()
		return false
	}
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mutex.Unlock()

	if h.gauge != nil {
		h.gauge.WSConnected()
	}
	h.logger.Info("ws connected", zap.Int("total_clients", total))
	return true
}

func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		h.dropLocked(client)
	}
	total := len(h.clients)
	h.mutex.Unlock()

	if ok {
		h.logger.Info("ws disconnected", zap.Int("total_clients", total))
	}
}

func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c)
	close(c.send)
	if h.gauge != nil {
		h.gauge.WSDisconnected()
	}
}

func (h *Hub) Broadcast(message []byte) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("ws broadcast dropped", zap.String("reason", "buffer_full"))
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

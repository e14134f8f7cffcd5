package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"sheetpulse/internal/infrastructure"
	"sheetpulse/pkg/contracts/events"
)

// broadcastQueue bounds messages waiting for the hub loop.
const broadcastQueue = 64

type outbound struct {
	messageType string
	payload     []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger  *slog.Logger
	metrics *Metrics

	// closed when Run returns
	done chan struct{}
	once sync.Once
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan outbound, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down", slog.Int("clients", h.ClientCount()))
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			cctx := client.context()
			h.logger.InfoContext(cctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.metrics.RecordConnection(cctx)

			h.greet(client)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if !ok {
				continue
			}

			cctx := client.context()
			lifetime := time.Since(client.connectedAt)
			h.logger.InfoContext(cctx, "Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", lifetime))
			h.metrics.RecordDisconnection(cctx, lifetime, "closed")

		case msg := <-h.broadcast:
			h.fanOut(ctx, msg)
		}
	}
}

func (h *Hub) greet(client *Client) {
	payload, err := json.Marshal(events.NewMessage(events.MessageTypeConnect, client.traceID, map[string]string{
		"status":    "connected",
		"client_id": client.id,
	}))
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) fanOut(ctx context.Context, msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered, dropped := 0, 0
	for client := range h.clients {
		select {
		case client.send <- msg.payload:
			delivered++
		default:
			dropped++
			close(client.send)
			delete(h.clients, client)
			h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
			h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt), "slow")
		}
	}

	h.logger.Debug("Broadcast message",
		slog.String("message_type", msg.messageType),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped),
		slog.Int("payload_size", len(msg.payload)))
	h.metrics.RecordBroadcast(ctx, msg.messageType, delivered, dropped)
}

func (h *Hub) shutdown() {
	h.once.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	})
}

// Broadcast wraps data in a message envelope and queues it for every client.
// It never blocks; when the queue is full or the hub has stopped the message
// is dropped.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	payload, err := json.Marshal(events.NewMessage(events.MessageType(messageType), "", data))
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("message_type", messageType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- outbound{messageType: messageType, payload: payload}:
	default:
		h.logger.Warn("Broadcast queue full, dropping message",
			slog.String("message_type", messageType))
		h.metrics.RecordBroadcast(context.Background(), messageType, 0, 1)
	}
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Done is closed after Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

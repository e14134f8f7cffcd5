package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"sheetpulse/internal/middleware"
)

// HandlerConfig configures the upgrade endpoint.
type HandlerConfig struct {
	// AllowedOrigins lists browser origins that may connect. Empty or "*"
	// allows any origin. Requests without an Origin header are accepted.
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	Timing          Timing
}

// Handler upgrades requests to websocket connections attached to the hub.
func (h *Hub) Handler(cfg HandlerConfig) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || middleware.OriginAllowed(cfg.AllowedOrigins, origin) {
				return true
			}
			h.logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", cfg.AllowedOrigins))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := NewClient(h, conn, middleware.GetReqID(r.Context()), cfg.Timing, h.logger)
		if !h.Register(client) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/arena-tournaments/brackets"
	"github.com/Dosada05/arena-tournaments/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub      *brackets.Hub
	registry *services.Registry
	logger   *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, registry *services.Registry, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, registry: registry, logger: logger}
}

// ServeHandler обрабатывает GET /ws/tournaments/{name}: подключает зрителя
// к комнате турнира с живыми событиями.
func (h *WebSocketHandler) ServeHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.registry.Get(name); !ok {
		mapServiceErrorToHTTP(w, r, services.ErrTournamentNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("tournament", name), slog.Any("error", err))
		return
	}

	client := brackets.NewClient(h.hub, conn, name)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

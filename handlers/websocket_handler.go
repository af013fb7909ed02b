package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Dosada05/padelflow/brackets"
	"github.com/Dosada05/padelflow/services"
	"github.com/gorilla/websocket"
)

const messageBracketSnapshot = "bracket_snapshot"

type WebSocketHandler struct {
	hub            *brackets.Hub
	bracketService services.BracketService
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewWebSocketHandler принимает список разрешённых Origin; "*" разрешает все.
func NewWebSocketHandler(hub *brackets.Hub, bs services.BracketService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:            hub,
		bracketService: bs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeWs обрабатывает GET /ws/tournaments/{tournamentID}. Сразу после
// подключения клиент получает текущую сетку, дальше только события.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var snapshot *services.BracketView
	if h.bracketService != nil {
		snapshot, err = h.bracketService.GetBracket(r.Context(), tournamentID)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		h.logger.Warn("failed to upgrade websocket connection", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	roomID := brackets.TournamentRoom(tournamentID)
	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}

	if snapshot != nil {
		msg, err := json.Marshal(brackets.WebSocketMessage{Type: messageBracketSnapshot, Payload: snapshot, RoomID: roomID})
		if err == nil {
			client.Send <- msg
		}
	}

	if !client.Hub.Join(client) {
		h.logger.Warn("websocket hub stopped, dropping connection", slog.String("room", roomID))
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client connected", slog.String("room", roomID))
}

// NewHubPublisher рассылает события движка зрителям комнаты турнира.
func NewHubPublisher(hub *brackets.Hub) services.EventPublisher {
	return services.EventPublisherFunc(func(ctx context.Context, event services.Event) error {
		roomID := brackets.TournamentRoom(event.TournamentID)
		hub.BroadcastToRoom(roomID, brackets.WebSocketMessage{
			Type:    string(event.Type),
			Payload: event,
			RoomID:  roomID,
		})
		return nil
	})
}

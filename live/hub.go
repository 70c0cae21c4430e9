package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event kinds pushed to subscribers of a tournament room.
const (
	EventTournamentUpdated = "TOURNAMENT_UPDATED"
	EventGameUpdated       = "GAME_UPDATED"
	EventStatsUpdated      = "STATS_UPDATED"
)

// Message is the envelope every room broadcast is wrapped in.
type Message struct {
	Type         string      `json:"type"`
	TournamentID int         `json:"tournament_id"`
	Payload      interface{} `json:"payload"`
}

// Client is a single websocket subscriber bound to one tournament room.
type Client struct {
	Hub          *Hub
	Conn         *websocket.Conn
	Send         chan []byte
	TournamentID int

	mu       sync.Mutex
	isClosed bool
}

// Hub fans tournament updates out to websocket subscribers. Rooms are keyed
// by tournament id and created/dropped as clients come and go.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[int]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.TournamentID]; !ok {
				h.rooms[client.TournamentID] = make(map[*Client]bool)
			}
			h.rooms[client.TournamentID][client] = true
			h.logger.Info("websocket client registered",
				slog.Int("tournament_id", client.TournamentID),
				slog.Int("room_size", len(h.rooms[client.TournamentID])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.TournamentID]; ok {
				if _, okClient := room[client]; okClient {
					client.mu.Lock()
					if !client.isClosed {
						close(client.Send)
						client.isClosed = true
					}
					client.mu.Unlock()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.TournamentID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToTournament sends an event to every client subscribed to the
// tournament. Slow clients are skipped rather than blocking the caller.
func (h *Hub) BroadcastToTournament(tournamentID int, eventType string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[tournamentID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(Message{
		Type:         eventType,
		TournamentID: tournamentID,
		Payload:      payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal websocket message",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	for client := range room {
		client.mu.Lock()
		if client.isClosed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("websocket client send buffer full, skipping",
				slog.Int("tournament_id", tournamentID))
		}
		client.mu.Unlock()
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		// Clients only listen; inbound messages are drained and ignored.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

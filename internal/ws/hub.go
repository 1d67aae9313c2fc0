package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventCatalogUpdated = "catalog_updated"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // bot runtimes are not browsers
	},
}

// Client is one websocket connection of a bot runtime.
type Client struct {
	hub  *Hub
	bot  string
	conn *websocket.Conn
	send chan []byte
}

type tenantMessage struct {
	bot     string
	payload []byte
}

// Hub fans events out to connected bot runtimes, per tenant.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan tenantMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan tenantMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the client map until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
			}
			h.clients = map[string]map[*Client]bool{}
			return
		case client := <-h.register:
			if h.clients[client.bot] == nil {
				h.clients[client.bot] = make(map[*Client]bool)
			}
			h.clients[client.bot][client] = true
			h.log.Debug("WebSocket client registered", zap.String("bot", client.bot))
		case client := <-h.unregister:
			h.remove(client)
			h.log.Debug("WebSocket client unregistered", zap.String("bot", client.bot))
		case msg := <-h.broadcast:
			for client := range h.clients[msg.bot] {
				select {
				case client.send <- msg.payload:
				default:
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients := h.clients[client.bot]
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.bot)
	}
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Notify queues an event for every socket of bot. It never blocks after the
// hub has stopped.
func (h *Hub) Notify(bot, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.log.Error("Error marshaling WS event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- tenantMessage{bot: bot, payload: payload}:
	case <-h.done:
	}
}

// CatalogUpdated tells a tenant's bots that an entity changed.
func (h *Hub) CatalogUpdated(bot, entity string, id uint) {
	h.Notify(bot, EventCatalogUpdated, map[string]interface{}{"entity": entity, "id": id})
}

// ServeWs upgrades the request and attaches the socket to bot.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, bot string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}
	client := &Client{hub: h, bot: bot, conn: conn, send: make(chan []byte, 256)}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

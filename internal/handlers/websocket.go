package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/games"
	"tsf-arena-backend/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const clientQueueSize = 64

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client is one websocket subscriber. Each client owns a buffered send queue
// drained by its writePump; the hub never blocks on a slow connection, it
// drops the frame instead.
type Client struct {
	UserID int64
	conn   *websocket.Conn
	send   chan *Message
}

type WebSocketHub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

// WebSocketHandler upgrades connections and feeds the hub. It is the
// services.Broadcaster the round engines publish through.
type WebSocketHandler struct {
	store   *store.Store
	crash   *games.CrashEngine
	wingo   *games.WingoEngine
	chicken *games.ChickenEngine
	hub     *WebSocketHub
}

func NewWebSocketHandler(st *store.Store, crash *games.CrashEngine,
	wingo *games.WingoEngine, chicken *games.ChickenEngine) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
	}

	go hub.run()

	return &WebSocketHandler{
		store:   st,
		crash:   crash,
		wingo:   wingo,
		chicken: chicken,
		hub:     hub,
	}
}

// Publish implements services.Broadcaster. Engines call this from inside
// their tick loops, so it must never block: if the hub queue is full the
// event is dropped and the next snapshot catches clients up.
func (h *WebSocketHandler) Publish(event string, data any) {
	select {
	case h.hub.broadcast <- &Message{Type: event, Data: data}:
	default:
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade to WebSocket")
		return
	}

	client := &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan *Message, clientQueueSize),
	}

	h.hub.register <- client
	go client.writePump()

	h.sendSnapshots(client)

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("user_id", userID).Debug("WebSocket closed")
			}
			return
		}
		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		client.enqueue(&Message{Type: "PONG", Data: gin.H{"timestamp": time.Now().Unix()}})
	case "SYNC":
		h.sendSnapshots(client)
	}
}

// sendSnapshots pushes the current round states and the caller's balance so
// a fresh connection starts from a consistent picture.
func (h *WebSocketHandler) sendSnapshots(client *Client) {
	client.enqueue(&Message{Type: "crash:init", Data: h.crash.State()})
	client.enqueue(&Message{Type: "wingo:init", Data: h.wingo.State()})
	client.enqueue(&Message{Type: "chicken:init", Data: h.chicken.State()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	user, err := h.store.GetUserByID(ctx, client.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", client.UserID).Warn("Failed to load balance for WS")
		return
	}
	client.enqueue(&Message{Type: "balance:update", Data: gin.H{"balance": user.WalletBalance}})
}

// enqueue is the non-blocking write into the client's queue.
func (c *Client) enqueue(msg *Message) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true
			log.WithField("user_id", client.UserID).Debug("WebSocket client registered")

		case client := <-hub.unregister:
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
				log.WithField("user_id", client.UserID).Debug("WebSocket client unregistered")
			}

		case message := <-hub.broadcast:
			for client := range hub.clients {
				client.enqueue(message)
			}
		}
	}
}

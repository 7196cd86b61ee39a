package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"argus/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = 30 * time.Second
	feedSendBuffer = 64
)

var feedUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SignalHub fans freshly saved signals out to websocket subscribers. A
// subscriber that cannot keep up loses messages rather than blocking the
// producer.
type SignalHub struct {
	mu      sync.RWMutex
	clients map[*feedClient]bool
}

func NewSignalHub() *SignalHub {
	return &SignalHub{clients: make(map[*feedClient]bool)}
}

type feedClient struct {
	hub  *SignalHub
	conn *websocket.Conn
	send chan []byte
}

// BroadcastSignals pushes one envelope per batch to every connected client.
// Safe on a nil hub.
func (h *SignalHub) BroadcastSignals(signals []domain.Signal) {
	if h == nil || len(signals) == 0 {
		return
	}
	envelope, err := json.Marshal(map[string]any{
		"type":    "signals",
		"signals": signals,
		"ts":      time.Now().UTC(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
		}
	}
}

func (h *SignalHub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *SignalHub) register(conn *websocket.Conn) {
	client := &feedClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, feedSendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("signal feed client connected (%d total)", count)

	go client.writePump()
	go client.readPump()
}

func (h *SignalHub) remove(client *feedClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the feed is one-way. Reading still
// services pong handling and surfaces the close.
func (c *feedClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
		log.Println("signal feed client disconnected")
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// SignalFeed godoc
// @Summary      Live signal feed
// @Description  Upgrades to a websocket that streams signal batches as they are detected
// @Tags         signals
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      503  {object}  map[string]string
// @Router       /ws/signals [get]
func (h *Handler) SignalFeed(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal feed unavailable"})
		return
	}

	conn, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("signal feed upgrade error: %v", err)
		return
	}
	h.hub.register(conn)
}

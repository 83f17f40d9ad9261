package stream

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readLimit    = 1 << 16
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 16
	inputBuffer  = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans broadcast messages out to every connected WebSocket client and
// collects the messages they send. Slow clients drop frames rather than
// stall the broadcaster.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	welcome []byte
	inputs  chan Envelope
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		inputs:  make(chan Envelope, inputBuffer),
	}
}

// SetWelcome sets the message queued first for every new client.
func (h *Hub) SetWelcome(w Welcome) error {
	msg, err := Encode(MsgWelcome, w)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.welcome = msg
	h.mu.Unlock()
	return nil
}

// Broadcast encodes payload once and queues it for every client.
func (h *Hub) Broadcast(t string, payload any) error {
	msg, err := Encode(t, payload)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	return nil
}

// Inputs delivers decoded client messages.
func (h *Hub) Inputs() <-chan Envelope { return h.inputs }

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.welcome != nil {
		c.send <- h.welcome
	}
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writeLoop()

	defer func() {
		h.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("read:", err)
			}
			return
		}
		env, err := DecodeEnvelope(msg)
		if err != nil {
			log.Println("decode:", err)
			continue
		}
		select {
		case h.inputs <- env:
		default:
			log.Printf("input queue full, dropping %s", env.T)
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package websocket

import (
	"log"
	"sync"
	"time"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Notice is pushed to every connected admin when a payment is requested or
// changes status.
type Notice struct {
	Type      string      `json:"type"`
	PaymentID string      `json:"paymentId"`
	Status    string      `json:"status"`
	Payment   interface{} `json:"payment,omitempty"`
	At        time.Time   `json:"at"`
}

type Client struct {
	AdminID string
	Conn    Conn
}

// Hub fans notices out to admin review sessions.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Notice
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Notice, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Register and Unregister return immediately once the hub is stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues n for delivery. It never blocks the caller; when the queue
// is full the notice is dropped.
func (h *Hub) Publish(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	select {
	case h.broadcast <- n:
	default:
		log.Printf("⚠️ Admin feed queue full, dropping %s notice for %s", n.Type, n.PaymentID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Stop() { h.stopOnce.Do(func() { close(h.done) }) }

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case client := <-h.register:
			log.Printf("Admin feed client registered: %s", client.AdminID)
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			log.Printf("Admin feed client unregistered: %s", client.AdminID)
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
		case notice := <-h.broadcast:
			h.deliver(notice)
		}
	}
}

func (h *Hub) deliver(n Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if err := client.Conn.WriteJSON(n); err != nil {
			log.Printf("Error sending notice to admin %s: %v", client.AdminID, err)
			client.Conn.Close()
			delete(h.clients, client)
		}
	}
}

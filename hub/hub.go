package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-order/utils"
)

// Event types
const (
	EventCheckoutState  = "checkout_state"
	EventCartUpdate     = "cart_update"
	EventPaymentPending = "payment_pending"
	EventPaymentSuccess = "payment_success"
	EventPaymentFailed  = "payment_failed"
	EventPaymentTimeout = "payment_timeout"
)

// writeWait bounds a write to one client. A phone that stops reading is
// dropped instead of holding up every other table.
var writeWait = 10 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Publisher is what services need from the hub
type Publisher interface {
	Publish(scope string, event string, data interface{})
}

// Hub fans events out to the devices watching a table
type Hub struct {
	clients map[*websocket.Conn]string // conn -> scope
	mutex   sync.Mutex
}

func New() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

// Register adds a connection under a scope
func (h *Hub) Register(conn *websocket.Conn, scope string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = scope
}

// Unregister drops the connection and closes it
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
}

// Count of connections watching scope
func (h *Hub) Count(scope string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for _, s := range h.clients {
		if s == scope {
			n++
		}
	}
	return n
}

func (h *Hub) Publish(scope string, event string, data interface{}) {
	h.broadcast(scope, Message{Event: event, Data: data})
}

func (h *Hub) broadcast(scope string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for conn, s := range h.clients {
		if s != scope {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to client of %s: %v", msg.Event, scope, err)
			delete(h.clients, conn)
			conn.Close()
			continue
		}
		sent++
	}
	utils.InfoLogger.Debugf("Broadcast %s to %d clients of %s", msg.Event, sent, scope)
}

// Nop discards events, used when no hub is wired
type Nop struct{}

func (Nop) Publish(string, string, interface{}) {}

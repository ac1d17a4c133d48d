package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Run message types
const (
	MsgRunSnapshot      MessageType = "run_snapshot"
	MsgSubmissionResult MessageType = "submission_result"
	MsgRunFinished      MessageType = "run_finished"
	MsgError            MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans run updates out to the connections watching each run
type Hub struct {
	// runID -> connections
	conns map[string]map[*Connection]bool

	mu     sync.RWMutex
	logger *zap.Logger

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	stop       chan struct{}
	stopOnce   sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	RunID  string
	UserID string
	Send   chan []byte
	Hub    *Hub

	// Init runs on the hub goroutine when the connection joins, ordered with
	// broadcasts. It returns the first message and whether the run already
	// finished, in which case the connection is closed instead of registered.
	// A result may show up in both the snapshot and a later broadcast; seq tells them apart.
	Init func() (first []byte, finished bool)
}

// BroadcastMessage is a message to broadcast. Close disconnects the run's
// watchers after any queued messages.
type BroadcastMessage struct {
	RunID   string
	Message *Message
	Close   bool
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]bool),
		logger:     logger.Named("ws"),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		stop:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for runID, conns := range h.conns {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.conns, runID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			if conn.Init != nil {
				first, finished := conn.Init()
				if first != nil {
					select {
					case conn.Send <- first:
					default:
					}
				}
				if finished {
					close(conn.Send)
					continue
				}
			}
			h.mu.Lock()
			if h.conns[conn.RunID] == nil {
				h.conns[conn.RunID] = make(map[*Connection]bool)
			}
			h.conns[conn.RunID][conn] = true
			h.mu.Unlock()
			h.logger.Debug("watcher connected", zap.String("run", conn.RunID), zap.String("user", conn.UserID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.RunID]; ok && conns[conn] {
				delete(conns, conn)
				close(conn.Send)
				if len(conns) == 0 {
					delete(h.conns, conn.RunID)
				}
				h.logger.Debug("watcher disconnected", zap.String("run", conn.RunID))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			conns := h.conns[msg.RunID]
			if msg.Message != nil {
				data, _ := json.Marshal(msg.Message)
				for conn := range conns {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			}
			if msg.Close {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.conns, msg.RunID)
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.stop:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.stop:
	}
}

// Watchers returns how many connections follow a run
func (h *Hub) Watchers(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[runID])
}

// BroadcastRun sends a message to everyone watching a run (implements service.Broadcaster)
func (h *Hub) BroadcastRun(runID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.send(&BroadcastMessage{
		RunID: runID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	})
}

// CloseRun disconnects a finished run's watchers (implements service.Broadcaster)
func (h *Hub) CloseRun(runID string) {
	h.send(&BroadcastMessage{RunID: runID, Close: true})
}

// Close stops the hub and disconnects everyone
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) send(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.stop:
	}
}

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/typerace/go/internal/session"
)

// ConnectionManager tracks WebSocket connections and their room membership.
type ConnectionManager struct {
	mu              sync.RWMutex
	connections     map[*Connection]bool
	roomConnections map[string]map[*Connection]bool

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection represents one browser client. Each connection owns exactly one
// room session; view updates from the session are pushed through Send.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Session *session.Session
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time

	mu         sync.Mutex
	roomID     string
	sendClosed bool
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096, // typed values are bounded by the reference text
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections:     make(map[*Connection]bool),
		roomConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// starts its read/write pumps. newSession builds the room session for this
// connection, wired to push view updates back through it.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, newSession func(onChange func(session.View)) *session.Session) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Manager:     cm,
		Send:        make(chan []byte, 256),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}
	connection.Session = newSession(connection.pushView)

	cm.register(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")
	return connection, nil
}

func (cm *ConnectionManager) register(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn] = true
}

func (cm *ConnectionManager) unregister(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; !exists {
		return
	}
	delete(cm.connections, conn)
	cm.clearRoomLocked(conn)

	// Session callbacks may still be in flight; closing under the
	// connection lock keeps them from writing to a closed channel.
	conn.mu.Lock()
	conn.sendClosed = true
	close(conn.Send)
	conn.mu.Unlock()

	log.Info().Str("connection_id", conn.ID).Msg("connection unregistered")
}

// assignRoom records which room a connection has joined.
func (cm *ConnectionManager) assignRoom(conn *Connection, roomID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.clearRoomLocked(conn)
	if cm.roomConnections[roomID] == nil {
		cm.roomConnections[roomID] = make(map[*Connection]bool)
	}
	cm.roomConnections[roomID][conn] = true

	conn.mu.Lock()
	conn.roomID = roomID
	conn.mu.Unlock()
}

// clearRoom removes a connection from its room registry after it leaves.
func (cm *ConnectionManager) clearRoom(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clearRoomLocked(conn)
}

func (cm *ConnectionManager) clearRoomLocked(conn *Connection) {
	conn.mu.Lock()
	roomID := conn.roomID
	conn.roomID = ""
	conn.mu.Unlock()

	if roomID == "" {
		return
	}
	if connections, exists := cm.roomConnections[roomID]; exists {
		delete(connections, conn)
		if len(connections) == 0 {
			delete(cm.roomConnections, roomID)
		}
	}
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	roomCounts := make(map[string]int)
	for roomID, connections := range cm.roomConnections {
		roomCounts[roomID] = len(connections)
	}
	return map[string]interface{}{
		"total_connections": len(cm.connections),
		"active_rooms":      len(cm.roomConnections),
		"room_connections":  roomCounts,
	}
}

// pushView marshals a session view and queues it for delivery. A full send
// buffer drops the frame rather than blocking the session; every view frame
// is a complete snapshot, so the next one supersedes it.
func (c *Connection) pushView(view session.View) {
	data, err := json.Marshal(NewViewMessage(view))
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal view frame")
		return
	}
	if !c.trySend(data) {
		log.Warn().Str("connection_id", c.ID).Msg("send buffer full, dropping view frame")
	}
}

func (c *Connection) sendError(err error) {
	data, marshalErr := json.Marshal(NewErrorMessage(err))
	if marshalErr != nil {
		return
	}
	c.trySend(data)
}

// trySend queues a frame without blocking. It reports false when the frame
// was dropped, either because the buffer is full or the connection is gone.
func (c *Connection) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles messages from the WebSocket connection. Leaving the room
// on exit is unconditional: whether the client left cleanly, dropped, or
// errored, the player's record must be deleted from the shared store.
func (c *Connection) readPump() {
	defer func() {
		c.Session.Leave(context.Background())
		c.Manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}
		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage routes one client frame into the session.
func (c *Connection) handleClientMessage(data []byte) {
	msg, err := ParseClientMessage(data)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("ignoring malformed client message")
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case ClientMessageJoin:
		if err := c.Session.Join(ctx, msg.RoomID); err != nil {
			c.sendError(err)
			return
		}
		c.Manager.assignRoom(c, msg.RoomID)
	case ClientMessageInput:
		c.Session.SubmitTyped(ctx, msg.Value)
	case ClientMessageLeave:
		c.Session.Leave(ctx)
		c.Manager.clearRoom(c)
	}
}

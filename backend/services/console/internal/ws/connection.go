package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 16
	readLimit    = 4 * 1024
	pongDeadline = 60 * time.Second
)

// Connection is one browser tab subscribed to its workspace's views.
type Connection struct {
	workspaceID  string
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	onClose      func(*Connection)

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(workspaceID string, conn *websocket.Conn, writeTimeout, pingInterval time.Duration, logger *zap.Logger, onClose func(*Connection)) *Connection {
	return &Connection{
		workspaceID:  workspaceID,
		ws:           conn,
		send:         make(chan []byte, sendBuffer),
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		onClose:      onClose,
		done:         make(chan struct{}),
	}
}

// WorkspaceID returns identifier.
func (c *Connection) WorkspaceID() string {
	return c.workspaceID
}

func (c *Connection) start() {
	go c.writePump()
	go c.readPump()
}

// readPump only watches for close and pong frames; browsers never send commands here.
func (c *Connection) readPump() {
	defer c.Close()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongDeadline))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongDeadline))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("view connection read closed", zap.String("workspace_id", c.workspaceID), zap.Error(err))
			return
		}
	}
}

// writePump is the only writer on the socket.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-c.done:
			_ = c.write(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send enqueues msg. When the buffer is full the oldest queued frame is dropped so the tab
// always ends on the latest view.
func (c *Connection) Send(msg []byte) {
	for {
		select {
		case <-c.done:
			return
		default:
		}
		select {
		case c.send <- msg:
			return
		default:
		}
		select {
		case <-c.send:
			c.logger.Debug("dropping stale view frame", zap.String("workspace_id", c.workspaceID))
		default:
		}
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

// Close tears the connection down once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

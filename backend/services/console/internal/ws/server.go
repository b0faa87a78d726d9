package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades browser connections for view push.
type Server struct {
	manager      *Manager
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(manager *Manager, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Server {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Server{
		manager:      manager,
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Attach upgrades the request and subscribes it to workspaceID. initial, when non-nil, is
// sent first so the tab catches up with changes made since the page was served.
func (s *Server) Attach(w http.ResponseWriter, r *http.Request, workspaceID string, initial []byte) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	connection := newConnection(workspaceID, conn, s.writeTimeout, s.pingInterval, s.logger, s.manager.Remove)
	s.manager.Add(connection)
	if initial != nil {
		connection.Send(initial)
	}
	connection.start()
	s.logger.Debug("view connection opened", zap.String("workspace_id", workspaceID))
	return nil
}

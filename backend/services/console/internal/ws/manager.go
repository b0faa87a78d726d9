package ws

import (
	"sync"

	"colonnine/backend/services/console/internal/metrics"
)

// Manager tracks the view connections of every workspace.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]map[*Connection]struct{}
}

// NewManager builds connection manager.
func NewManager() *Manager {
	return &Manager{conns: make(map[string]map[*Connection]struct{})}
}

// Add registers conn.
func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.conns[conn.WorkspaceID()]
	if !ok {
		set = make(map[*Connection]struct{})
		m.conns[conn.WorkspaceID()] = set
	}
	set[conn] = struct{}{}
	metrics.WebSocketConnections.Inc()
}

// Remove unregisters conn.
func (m *Manager) Remove(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.conns[conn.WorkspaceID()]
	if !ok {
		return
	}
	if _, ok := set[conn]; !ok {
		return
	}
	delete(set, conn)
	metrics.WebSocketConnections.Dec()
	if len(set) == 0 {
		delete(m.conns, conn.WorkspaceID())
	}
}

// Broadcast sends msg to every connection of workspaceID.
func (m *Manager) Broadcast(workspaceID string, msg []byte) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.conns[workspaceID]
	for conn := range set {
		conn.Send(msg)
	}
	return len(set)
}

// CloseWorkspace disconnects every tab of workspaceID.
func (m *Manager) CloseWorkspace(workspaceID string) {
	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.conns[workspaceID]))
	for conn := range m.conns[workspaceID] {
		conns = append(conns, conn)
	}
	m.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Count returns the number of open connections for workspaceID.
func (m *Manager) Count(workspaceID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns[workspaceID])
}

package state

import (
	"sync"

	"colonnine/backend/services/console/internal/models"
)

// SessionState holds the identity of the signed-in principal, or nil.
type SessionState struct {
	mu       sync.RWMutex
	identity *models.Identity
	version  uint64
}

// Set replaces the identity. nil means signed out.
func (s *SessionState) Set(identity *models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity == nil {
		s.identity = nil
	} else {
		cp := *identity
		s.identity = &cp
	}
	s.version++
}

// Get returns a copy of the identity or nil.
func (s *SessionState) Get() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// Role is shorthand for Get().Role with RoleNone when signed out.
func (s *SessionState) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.RoleNone
	}
	return s.identity.Role
}

// Version increases on every Set, even when the identity is unchanged.
func (s *SessionState) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

package workspace

import (
	"context"
	"sync"
)

// StoredCookie is the persisted part of a backend session cookie.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CookieStore persists backend cookies per workspace so a console restart keeps users signed in.
type CookieStore interface {
	Save(ctx context.Context, workspaceID string, cookies []StoredCookie) error
	Load(ctx context.Context, workspaceID string) ([]StoredCookie, error)
	Delete(ctx context.Context, workspaceID string) error
}

// MemoryStore keeps cookies in process. Used when redis is not configured.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]StoredCookie
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]StoredCookie)}
}

// Save implements CookieStore.
func (s *MemoryStore) Save(_ context.Context, workspaceID string, cookies []StoredCookie) error {
	cp := make([]StoredCookie, len(cookies))
	copy(cp, cookies)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[workspaceID] = cp
	return nil
}

// Load implements CookieStore. Unknown ids yield no cookies.
func (s *MemoryStore) Load(_ context.Context, workspaceID string) ([]StoredCookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cookies := s.items[workspaceID]
	out := make([]StoredCookie, len(cookies))
	copy(out, cookies)
	return out, nil
}

// Delete implements CookieStore.
func (s *MemoryStore) Delete(_ context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, workspaceID)
	return nil
}

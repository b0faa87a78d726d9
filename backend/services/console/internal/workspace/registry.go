package workspace

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/metrics"
	"colonnine/backend/services/console/internal/syncer"
)

const (
	defaultIdleTTL = 30 * time.Minute
	storeTimeout   = 2 * time.Second
)

// Workspace is the client-side state of one browser.
type Workspace struct {
	ID         string
	Controller *syncer.Controller
	jar        http.CookieJar
	lastSeen   time.Time
}

// BuildFunc creates the controller of a new workspace around its cookie jar.
type BuildFunc func(id string, jar http.CookieJar) *syncer.Controller

// Options configures a Registry.
type Options struct {
	BackendURL string
	IdleTTL    time.Duration
	Store      CookieStore
	Build      BuildFunc
	Logger     *zap.Logger
	// OnEvict runs after a workspace has been dropped.
	OnEvict func(id string)
}

// Registry owns every live workspace.
type Registry struct {
	mu      sync.Mutex
	items   map[string]*Workspace
	backend *url.URL
	ttl     time.Duration
	store   CookieStore
	build   BuildFunc
	logger  *zap.Logger
	onEvict func(string)
	now     func() time.Time
}

// NewRegistry validates opts and returns an empty registry.
func NewRegistry(opts Options) (*Registry, error) {
	backend, err := url.Parse(opts.BackendURL)
	if err != nil || backend.Scheme == "" || backend.Host == "" {
		return nil, fmt.Errorf("workspace: invalid backend url %q", opts.BackendURL)
	}
	if opts.Build == nil {
		return nil, fmt.Errorf("workspace: build func is required")
	}
	r := &Registry{
		items:   make(map[string]*Workspace),
		backend: backend,
		ttl:     opts.IdleTTL,
		store:   opts.Store,
		build:   opts.Build,
		logger:  opts.Logger,
		onEvict: opts.OnEvict,
		now:     time.Now,
	}
	if r.ttl <= 0 {
		r.ttl = defaultIdleTTL
	}
	if r.store == nil {
		r.store = NewMemoryStore()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

// Acquire returns the workspace for id, creating it when id is empty or unknown. A created
// workspace gets its persisted backend cookies back and runs the page-load sequence before
// Acquire returns.
func (r *Registry) Acquire(ctx context.Context, id string) (*Workspace, bool, error) {
	r.mu.Lock()
	if ws, ok := r.items[id]; ok && id != "" {
		ws.lastSeen = r.now()
		r.mu.Unlock()
		return ws, false, nil
	}
	if id == "" {
		id = uuid.NewString()
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		r.mu.Unlock()
		return nil, false, err
	}
	ws := &Workspace{ID: id, jar: jar, lastSeen: r.now()}
	ws.Controller = r.build(id, jar)
	r.items[id] = ws
	metrics.ActiveWorkspaces.Set(float64(len(r.items)))
	r.mu.Unlock()

	ctx = WithID(ctx, id)
	if err := r.restore(ctx, ws); err != nil {
		r.logger.Warn("restore backend cookies failed", zap.String("workspace_id", id), zap.Error(err))
	}
	ws.Controller.Init(ctx)
	r.logger.Debug("workspace created", zap.String("workspace_id", id))
	return ws, true, nil
}

// Get returns a live workspace without creating one.
func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[id]
	return ws, ok
}

// Len reports the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Registry) restore(ctx context.Context, ws *Workspace) error {
	stored, err := r.store.Load(ctx, ws.ID)
	if err != nil || len(stored) == 0 {
		return err
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	ws.jar.SetCookies(r.backend, cookies)
	return nil
}

// Persist saves the workspace's backend cookies.
func (r *Registry) Persist(ctx context.Context, ws *Workspace) error {
	cookies := ws.jar.Cookies(r.backend)
	stored := make([]StoredCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, StoredCookie{Name: c.Name, Value: c.Value})
	}
	return r.store.Save(ctx, ws.ID, stored)
}

// Sweep evicts workspaces idle for longer than the TTL, forgets their stored backend cookies
// and returns how many were dropped.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var evicted []*Workspace
	for id, ws := range r.items {
		if ws.lastSeen.Before(cutoff) {
			evicted = append(evicted, ws)
			delete(r.items, id)
		}
	}
	metrics.ActiveWorkspaces.Set(float64(len(r.items)))
	r.mu.Unlock()

	for _, ws := range evicted {
		ws.Controller.Close()
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := r.store.Delete(ctx, ws.ID); err != nil {
			r.logger.Warn("delete backend cookies failed", zap.String("workspace_id", ws.ID), zap.Error(err))
		}
		cancel()
		if r.onEvict != nil {
			r.onEvict(ws.ID)
		}
		r.logger.Debug("workspace evicted", zap.String("workspace_id", ws.ID))
	}
	return len(evicted)
}

// Start runs the eviction loop until ctx is done.
func (r *Registry) Start(ctx context.Context) {
	interval := r.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("evicted idle workspaces", zap.Int("count", n))
			}
		}
	}
}

// Close drops every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Workspace)
	metrics.ActiveWorkspaces.Set(0)
	r.mu.Unlock()

	for _, ws := range items {
		ws.Controller.Close()
	}
}

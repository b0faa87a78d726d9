package notify

import (
	"sync"
	"time"
)

// Kind selects the alert styling.
type Kind string

const (
	KindSuccess Kind = "success"
	KindDanger  Kind = "danger"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// DefaultLifetime is how long a notification stays visible.
const DefaultLifetime = 5 * time.Second

// Notification is one transient alert.
type Notification struct {
	ID        uint64    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Options tunes a Center. Zero values use defaults.
type Options struct {
	Lifetime time.Duration
	Now      func() time.Time
	// OnExpire runs after a notification has been dropped, outside the Center lock.
	OnExpire func()
}

// Center keeps the visible notifications of one workspace.
type Center struct {
	mu       sync.Mutex
	items    []Notification
	timers   map[uint64]*time.Timer
	nextID   uint64
	lifetime time.Duration
	now      func() time.Time
	onExpire func()
	stopped  bool
}

// NewCenter returns an empty Center.
func NewCenter(opts Options) *Center {
	c := &Center{
		timers:   make(map[uint64]*time.Timer),
		lifetime: opts.Lifetime,
		now:      opts.Now,
		onExpire: opts.OnExpire,
	}
	if c.lifetime <= 0 {
		c.lifetime = DefaultLifetime
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Push shows a notification for the configured lifetime.
func (c *Center) Push(kind Kind, message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	n := Notification{
		ID:        c.nextID,
		Kind:      kind,
		Message:   message,
		ExpiresAt: c.now().Add(c.lifetime),
	}
	c.items = append(c.items, n)
	if !c.stopped {
		id := n.ID
		c.timers[id] = time.AfterFunc(c.lifetime, func() { c.expire(id) })
	}
	return n
}

func (c *Center) expire(id uint64) {
	c.mu.Lock()
	delete(c.timers, id)
	removed := c.removeLocked(id)
	hook := c.onExpire
	c.mu.Unlock()

	if removed && hook != nil {
		hook()
	}
}

func (c *Center) removeLocked(id uint64) bool {
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the notifications that have not expired yet, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := c.items[:0]
	for _, n := range c.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	c.items = kept

	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}

// Stop cancels pending expiry timers. Pushes after Stop are kept but never fire OnExpire.
func (c *Center) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

package web

import (
	"sort"
	"sync"
	"time"

	"autoscripter/internal/clock"
	"autoscripter/internal/session"

	"github.com/google/uuid"
)

// Factory builds a controller for a new session id.
type Factory func(id string) *session.Controller

type entry struct {
	ctrl     *session.Controller
	created  time.Time
	lastUsed time.Time
}

// Registry owns every live session. Each session is independent; the
// registry only tracks lifetimes.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	factory  Factory
	clock    clock.Clock
}

func NewRegistry(factory Factory, clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.NewReal()
	}
	return &Registry{sessions: map[string]*entry{}, factory: factory, clock: clk}
}

func (r *Registry) Create() *session.Controller {
	id := uuid.NewString()
	ctrl := r.factory(id)
	now := r.clock.Now()
	r.mu.Lock()
	r.sessions[ctrl.ID()] = &entry{ctrl: ctrl, created: now, lastUsed: now}
	r.mu.Unlock()
	return ctrl
}

// Get returns the session and marks it used.
func (r *Registry) Get(id string) (*session.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.clock.Now()
	return e.ctrl, true
}

// Touch marks a session used without returning it. It reports whether the
// session still exists.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if ok {
		e.lastUsed = r.clock.Now()
	}
	return ok
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		e.ctrl.Close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// ReapIdle closes sessions unused for longer than maxIdle and returns their
// ids.
func (r *Registry) ReapIdle(maxIdle time.Duration) []string {
	now := r.clock.Now()
	r.mu.RLock()
	var expired []string
	for id, e := range r.sessions {
		if now.Sub(e.lastUsed) > maxIdle {
			expired = append(expired, id)
		}
	}
	r.mu.RUnlock()

	sort.Strings(expired)
	for _, id := range expired {
		r.Delete(id)
	}
	return expired
}

// CloseAll tears every session down.
func (r *Registry) CloseAll() {
	for _, id := range r.IDs() {
		r.Delete(id)
	}
}

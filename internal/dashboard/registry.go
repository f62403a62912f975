package dashboard

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/swelljoe/skywatch/internal/effects"
)

// DefaultIdleTimeout is how long a disconnected session is kept.
const DefaultIdleTimeout = 30 * time.Minute

// Registry holds sessions by visitor id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	flicker  effects.FlickerConfig
	idle     time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry whose sessions use fc for lightning.
func NewRegistry(fc effects.FlickerConfig, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Registry{
		sessions: make(map[string]*Session),
		flicker:  fc,
		idle:     idle,
		now:      time.Now,
	}
}

// Get returns the visitor's session, creating it on first use.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	s, ok := r.sessions[id]
	if !ok {
		s = newSession(id, r.flicker)
		r.sessions[id] = s
	}
	s.touch(now)
	return s
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run evicts idle sessions until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			if n := r.cleanup(); n > 0 {
				log.Printf("dashboard: evicted %d idle sessions", n)
			}
		}
	}
}

// cleanup removes sessions with no socket that have been idle too long.
func (r *Registry) cleanup() int {
	r.mu.Lock()
	now := r.now()
	var stale []*Session
	for id, s := range r.sessions {
		if s.Connected() || now.Sub(s.idleSince()) <= r.idle {
			continue
		}
		stale = append(stale, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	return len(stale)
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

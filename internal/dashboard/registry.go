package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Factory builds the dashboard for a new session.
type Factory func() *Dashboard

type entry struct {
	dashboard *Dashboard
	lastSeen  time.Time
}

// Registry maps browser sessions to their dashboards. Nothing survives a
// process restart, matching a page reload losing all local state.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	factory Factory
	idle    time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewRegistry creates a registry that forgets sessions idle for longer than idle.
func NewRegistry(factory Factory, idle time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		factory: factory,
		idle:    idle,
		now:     time.Now,
		logger:  logger.With().Str("component", "Registry").Logger(),
	}
}

// Get returns the dashboard for sessionID, creating it on first use.
func (r *Registry) Get(sessionID string) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		e = &entry{dashboard: r.factory()}
		r.entries[sessionID] = e
		r.logger.Debug().Str("session_id", sessionID).Msg("Created dashboard")
	}
	e.lastSeen = r.now()
	return e.dashboard
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions not seen since idle before now and returns how many
// were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle)
	n := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info().Int("evicted", n).Msg("Evicted idle dashboards")
			}
		}
	}
}

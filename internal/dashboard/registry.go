package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const minSweepInterval = time.Minute

// Registry keeps one Controller per browser session.
type Registry struct {
	factory func() *Controller
	idleTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// NewRegistry builds a registry creating controllers with factory. Controllers
// unused for idleTTL are evicted by Sweep; a zero idleTTL disables eviction.
func NewRegistry(factory func() *Controller, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory: factory,
		idleTTL: idleTTL,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the controller bound to sessionID, creating it on first use.
// Until the bank API has answered a list call, every Get retries the startup
// Refresh with ctx before returning.
func (r *Registry) Get(ctx context.Context, sessionID string) *Controller {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	if !ok {
		entry = &registryEntry{ctrl: r.factory()}
		r.entries[sessionID] = entry
	}
	entry.lastSeen = r.now()
	r.mu.Unlock()

	if !entry.ctrl.Loaded() {
		_ = entry.ctrl.Refresh(ctx)
	}
	return entry.ctrl
}

// Len reports the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts idle controllers and returns how many were removed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}
	interval := r.idleTTL / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle dashboards", slog.Int("count", n))
			}
		}
	}
}

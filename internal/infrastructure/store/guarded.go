package store

import (
	"context"
	"sync"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"
)

var _ output.StatePort = (*GuardedStore)(nil)

// GuardedStore never fails. The first error from the durable store switches it
// to an in-memory record for the rest of the session; cross-restart resumption
// is lost but the navigation loop keeps running.
type GuardedStore struct {
	durable  output.StatePort
	fallback *MemoryStore
	logger   output.LoggerPort

	mu       sync.Mutex
	degraded bool
}

// NewGuardedStore wraps durable. A nil durable store starts degraded.
func NewGuardedStore(durable output.StatePort, logger output.LoggerPort) *GuardedStore {
	return &GuardedStore{
		durable:  durable,
		fallback: NewMemoryStore(),
		logger:   logger,
		degraded: durable == nil,
	}
}

// Degraded reports whether persistence fell back to memory.
func (g *GuardedStore) Degraded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.degraded
}

func (g *GuardedStore) active() output.StatePort {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.degraded {
		return g.fallback
	}
	return g.durable
}

func (g *GuardedStore) degrade(op string, err error) {
	g.mu.Lock()
	already := g.degraded
	g.degraded = true
	g.mu.Unlock()
	if !already {
		g.logger.Warn("State storage unavailable, continuing in memory", "op", op, "error", err)
	}
}

func (g *GuardedStore) Load(ctx context.Context) (entity.PersistedState, bool, error) {
	state, found, err := g.active().Load(ctx)
	if err != nil {
		g.degrade("load", err)
		return entity.PersistedState{}, false, nil
	}
	return state, found, nil
}

// Save writes to the active store. When a durable write fails the durable
// record is dropped, so a later process cannot resume a task that moved on.
func (g *GuardedStore) Save(ctx context.Context, state entity.PersistedState) error {
	if err := g.active().Save(ctx, state); err != nil {
		g.degrade("save", err)
		g.clearDurable(ctx)
		_ = g.fallback.Save(ctx, state)
	}
	return nil
}

// Clear removes the record everywhere, including a durable store that was
// already given up on.
func (g *GuardedStore) Clear(ctx context.Context) error {
	g.clearDurable(ctx)
	_ = g.fallback.Clear(ctx)
	return nil
}

func (g *GuardedStore) clearDurable(ctx context.Context) {
	if g.durable == nil {
		return
	}
	if err := g.durable.Clear(ctx); err != nil {
		g.degrade("clear", err)
		g.logger.Warn("Could not clear durable navigation state", "error", err)
	}
}

package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps screen state between requests
type Store interface {
	Load(ctx context.Context, id uuid.UUID) (State, error)
	Save(ctx context.Context, id uuid.UUID, state State) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type screen struct {
	ctrl     *Controller
	lastUsed time.Time
}

// Registry maps screen ids to live controllers
type Registry struct {
	mu      sync.Mutex
	screens map[uuid.UUID]*screen

	store   Store
	fetcher Fetcher
	cfg     Config
	idleTTL time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// NewRegistry creates a registry. Controllers unused for idleTTL are dropped by Sweep.
func NewRegistry(store Store, fetcher Fetcher, cfg Config, idleTTL time.Duration, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		screens: make(map[uuid.UUID]*screen),
		store:   store,
		fetcher: fetcher,
		cfg:     cfg,
		idleTTL: idleTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the controller of a screen, restoring it from the store if needed
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*Controller, error) {
	r.mu.Lock()
	if s, ok := r.screens[id]; ok {
		s.lastUsed = r.now()
		r.mu.Unlock()
		return s.ctrl, nil
	}
	r.mu.Unlock()

	ctrl := NewController(r.fetcher, r.cfg, r.logger)
	state, err := r.store.Load(ctx, id)
	switch {
	case err == nil:
		ctrl.Restore(state)
	case errors.Is(err, ErrScreenNotFound):
	default:
		return nil, fmt.Errorf("failed to load screen %s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request for the same screen may have won the race.
	if s, ok := r.screens[id]; ok {
		s.lastUsed = r.now()
		return s.ctrl, nil
	}
	r.screens[id] = &screen{ctrl: ctrl, lastUsed: r.now()}
	return ctrl, nil
}

// Save writes the controller's current state to the store
func (r *Registry) Save(ctx context.Context, id uuid.UUID, ctrl *Controller) error {
	if err := r.store.Save(ctx, id, ctrl.Snapshot()); err != nil {
		return fmt.Errorf("failed to save screen %s: %w", id, err)
	}
	return nil
}

// Len returns the number of live controllers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.screens)
}

// Sweep drops controllers idle for longer than the TTL and returns how many were dropped
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, s := range r.screens {
		if s.lastUsed.Before(cutoff) {
			delete(r.screens, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Printf("listing: dropped %d idle screens", n)
			}
		}
	}
}

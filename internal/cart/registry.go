package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	store    *Store
	lastUsed time.Time
}

// Registry hands out one Store per session, rehydrating it on first use.
// Stores are dropped again by Forget or EvictIdle; their slots stay in
// the repository and the next Open reloads them.
type Registry struct {
	repo    repository.CartRepository
	log     *slog.Logger
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*entry
	sfg     singleflight.Group // concurrent first opens share one load
}

func NewRegistry(repo repository.CartRepository, log *slog.Logger) *Registry {
	return &Registry{
		repo:    repo,
		log:     log,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

func (r *Registry) Open(ctx context.Context, sessionID string) (*Store, error) {
	if s := r.lookup(sessionID); s != nil {
		return s, nil
	}

	v, err, _ := r.sfg.Do(sessionID, func() (interface{}, error) {
		if s := r.lookup(sessionID); s != nil {
			return s, nil
		}
		s, err := Open(ctx, sessionID, r.repo, r.log)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.entries[sessionID] = &entry{store: s, lastUsed: r.now()}
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (r *Registry) lookup(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		return nil
	}
	e.lastUsed = r.now()
	return e.store
}

// Forget drops the in-memory store; the persisted slot is kept.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// EvictIdle forgets every store not opened after cutoff, except the ones
// keep reports as still in use. It returns how many were evicted.
func (r *Registry) EvictIdle(cutoff time.Time, keep func(sessionID string) bool) int {
	r.mu.Lock()
	var idle []string
	for id, e := range r.entries {
		if !e.lastUsed.After(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()

	evicted := 0
	for _, id := range idle {
		if keep != nil && keep(id) {
			continue
		}
		r.mu.Lock()
		// reopened since the scan
		if e, ok := r.entries[id]; ok && !e.lastUsed.After(cutoff) {
			delete(r.entries, id)
			evicted++
		}
		r.mu.Unlock()
	}
	return evicted
}

// Len reports how many stores are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

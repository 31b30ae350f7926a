// internal/optout/registry.go
package optout

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Store persists opt-out state beyond the process. Persistence is
// best-effort: the in-memory set is authoritative for the running process.
type Store interface {
	Add(ctx context.Context, destination string) error
	Remove(ctx context.Context, destination string) error
	List(ctx context.Context) ([]string, error)
}

// Registry is the process-wide set of opted-out destinations. It outlives
// any single campaign and is consulted before every send. Safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	numbers map[string]struct{}

	store Store
	log   zerolog.Logger
}

func NewRegistry(store Store, log zerolog.Logger) *Registry {
	return &Registry{
		numbers: make(map[string]struct{}),
		store:   store,
		log:     log,
	}
}

// Load seeds the in-memory set from the store.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	destinations, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range destinations {
		r.numbers[d] = struct{}{}
	}
	return nil
}

func (r *Registry) IsOptedOut(destination string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.numbers[destination]
	return ok
}

func (r *Registry) OptOut(destination string) {
	r.mu.Lock()
	r.numbers[destination] = struct{}{}
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Add(context.Background(), destination); err != nil {
			r.log.Error().Err(err).Str("destination", destination).Msg("failed to persist opt-out")
		}
	}
}

func (r *Registry) OptIn(destination string) {
	r.mu.Lock()
	delete(r.numbers, destination)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Remove(context.Background(), destination); err != nil {
			r.log.Error().Err(err).Str("destination", destination).Msg("failed to persist opt-in")
		}
	}
}

// All returns the opted-out destinations in sorted order.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.numbers))
	for d := range r.numbers {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.numbers)
}

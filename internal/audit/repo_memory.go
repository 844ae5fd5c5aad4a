package audit

import (
	"context"
	"sync"
)

// MemoryRepo is a simple in-memory append-only repository.
// The API process uses it when no database is configured; tests use it too.

type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// List returns events for one client, or every event when clientKey is empty.
func (r *MemoryRepo) List(ctx context.Context, clientKey string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range r.events {
		if clientKey == "" || e.ClientKey == clientKey {
			out = append(out, e)
		}
	}
	return out, nil
}

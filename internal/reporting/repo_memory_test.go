package reporting

import (
	"context"
	"sync"

	"telecom-network/internal/communications"
)

// memoryRepo is a canned reporting repository for service tests.
type memoryRepo struct {
	mu sync.Mutex

	Clients   []ClientBalance
	Terminals []TerminalUsage

	// Made and Received are keyed by client key.
	Made     map[string][]communications.Communication
	Received map[string][]communications.Communication
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		Made:     map[string][]communications.Communication{},
		Received: map[string][]communications.Communication{},
	}
}

func (r *memoryRepo) ListClientBalances(ctx context.Context) ([]ClientBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ClientBalance(nil), r.Clients...), nil
}

func (r *memoryRepo) ListTerminalUsage(ctx context.Context) ([]TerminalUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TerminalUsage(nil), r.Terminals...), nil
}

func (r *memoryRepo) ListClientCommunications(ctx context.Context, clientKey string, dir Direction) ([]communications.Communication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.Made
	if dir == DirectionReceived {
		src = r.Received
	}
	return append([]communications.Communication(nil), src[clientKey]...), nil
}

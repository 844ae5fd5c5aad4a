package network

import (
	"sync"

	"telecom-network/internal/snapshot"
)

// Service serializes every driver call into one Network.
type Service struct {
	mu  sync.Mutex
	net *Network
}

func NewService(n *Network) *Service { return &Service{net: n} }

// Do runs fn with exclusive access to the network.
func (s *Service) Do(fn func(n *Network) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.net)
}

// Checkpoint snapshots the network and clears the dirty flag. The bool reports
// whether anything changed since the previous checkpoint.
func (s *Service) Checkpoint() (snapshot.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.net.Dirty() {
		return snapshot.Snapshot{}, false
	}
	snap := s.net.Snapshot()
	s.net.MarkClean()
	return snap, true
}

// MarkDirty flags the network as changed, e.g. after a failed save.
func (s *Service) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net.MarkDirty()
}

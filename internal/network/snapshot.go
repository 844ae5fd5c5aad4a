package network

import (
	"fmt"

	"telecom-network/internal/clients"
	"telecom-network/internal/communications"
	"telecom-network/internal/snapshot"
	"telecom-network/internal/terminals"
)

// Snapshot copies the whole network into plain records.
func (n *Network) Snapshot() snapshot.Snapshot {
	s := snapshot.Snapshot{
		Version:              snapshot.Version,
		NextCommunicationKey: n.nextKey,
		Clients:              make([]clients.Record, 0, len(n.clients)),
		Terminals:            make([]terminals.Record, 0, len(n.terminals)),
		Communications:       n.Communications(),
	}
	for _, c := range n.Clients() {
		s.Clients = append(s.Clients, c.Record())
	}
	for _, t := range n.Terminals() {
		s.Terminals = append(s.Terminals, t.Record())
	}
	return s
}

// Restore replaces the network contents with s. On error the network is unchanged.
// Client plans are resolved by name through the catalog.
func (n *Network) Restore(s snapshot.Snapshot) error {
	if err := s.CheckVersion(); err != nil {
		return err
	}

	staged := &Network{log: n.log, catalog: n.catalog, publisher: n.publisher}
	staged.reset()
	if s.NextCommunicationKey > 0 {
		staged.nextKey = s.NextCommunicationKey
	}

	for _, r := range s.Clients {
		plan, err := n.catalog.Find(r.Plan)
		if err != nil {
			return fmt.Errorf("restoring client %s: %w", r.Key, err)
		}
		c, err := clients.FromRecord(r, plan)
		if err != nil {
			return err
		}
		if _, dup := staged.clients[c.Key()]; dup {
			return fmt.Errorf("%w: %s", ErrClientExists, c.Key())
		}
		staged.clients[c.Key()] = c
	}
	for _, r := range s.Terminals {
		t, err := terminals.FromRecord(r)
		if err != nil {
			return err
		}
		if _, dup := staged.terminals[t.Key()]; dup {
			return fmt.Errorf("%w: %s", ErrTerminalExists, t.Key())
		}
		staged.terminals[t.Key()] = t
	}
	for _, c := range s.Communications {
		if _, dup := staged.comms[c.Key]; dup || c.Key <= 0 {
			return fmt.Errorf("%w: duplicate or invalid communication %d", ErrInconsistent, c.Key)
		}
		if _, err := communications.ParseType(string(c.Type)); err != nil {
			return fmt.Errorf("%w: communication %d: %w", ErrInconsistent, c.Key, err)
		}
		if c.Status != communications.StatusOngoing && c.Status != communications.StatusFinished {
			return fmt.Errorf("%w: communication %d: unknown status %q", ErrInconsistent, c.Key, c.Status)
		}
		if c.Type == communications.TypeText && c.IsOngoing() {
			return fmt.Errorf("%w: text communication %d is ongoing", ErrInconsistent, c.Key)
		}
		comm := c
		staged.comms[c.Key] = &comm
	}
	if s.NextCommunicationKey <= 0 {
		for k := range staged.comms {
			if k >= staged.nextKey {
				staged.nextKey = k + 1
			}
		}
	}
	if err := staged.CheckInvariants(); err != nil {
		return err
	}

	n.clients = staged.clients
	n.terminals = staged.terminals
	n.comms = staged.comms
	n.nextKey = staged.nextKey
	n.dirty = false
	return nil
}

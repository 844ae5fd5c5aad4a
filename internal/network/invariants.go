package network

import (
	"errors"
	"fmt"
	"slices"

	"telecom-network/internal/terminals"
)

var ErrInconsistent = errors.New("network state inconsistent")

// CheckInvariants verifies the cross-entity rules. Restore runs it on every loaded snapshot.
func (n *Network) CheckInvariants() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInconsistent}, args...)...))
	}

	for _, c := range n.Clients() {
		for _, k := range c.Terminals() {
			t, ok := n.terminals[k]
			if !ok || t.OwnerKey() != c.Key() {
				fail("client %s lists terminal %s it does not own", c.Key(), k)
			}
		}
	}

	for _, t := range n.Terminals() {
		owner, ok := n.clients[t.OwnerKey()]
		if !ok || !owner.OwnsTerminal(t.Key()) {
			fail("terminal %s has no owner %s", t.Key(), t.OwnerKey())
		}

		cur, hasCur := t.CurrentCommunication()
		busy := t.State() == terminals.StateBusy
		switch {
		case busy != hasCur:
			fail("terminal %s is %s with current communication %d", t.Key(), t.State(), cur)
		case hasCur:
			c, ok := n.comms[cur]
			if !ok || !c.IsOngoing() {
				fail("terminal %s current communication %d is not ongoing", t.Key(), cur)
			} else if c.SenderKey != t.Key() && c.ReceiverKey != t.Key() {
				fail("terminal %s is not a party of its current communication %d", t.Key(), cur)
			}
		}

		for _, k := range t.Made() {
			if c, ok := n.comms[k]; !ok || c.SenderKey != t.Key() {
				fail("terminal %s lists made communication %d it did not send", t.Key(), k)
			}
		}
		for _, k := range t.Received() {
			if c, ok := n.comms[k]; !ok || c.ReceiverKey != t.Key() {
				fail("terminal %s lists received communication %d it did not receive", t.Key(), k)
			}
		}
	}

	for _, c := range n.Communications() {
		if c.Key >= n.nextKey {
			fail("communication %d not below next key %d", c.Key, n.nextKey)
		}
		sender, sok := n.terminals[c.SenderKey]
		receiver, rok := n.terminals[c.ReceiverKey]
		if !sok || !rok {
			fail("communication %d has unknown endpoints", c.Key)
			continue
		}
		if !sender.HasMade(c.Key) {
			fail("communication %d missing from sender %s", c.Key, c.SenderKey)
		}
		if !slices.Contains(receiver.Received(), c.Key) {
			fail("communication %d missing from receiver %s", c.Key, c.ReceiverKey)
		}
		if c.Price < 0 || c.Length < 0 {
			fail("communication %d has negative price or length", c.Key)
		}
		if c.Paid && !c.IsFinished() {
			fail("communication %d paid before finishing", c.Key)
		}
		if c.IsOngoing() {
			if c.Price != 0 || c.Length != 0 {
				fail("ongoing communication %d already priced", c.Key)
			}
			for _, t := range []*terminals.Terminal{sender, receiver} {
				if cur, ok := t.CurrentCommunication(); !ok || cur != c.Key {
					fail("ongoing communication %d is not current on %s", c.Key, t.Key())
				}
			}
		}
	}

	return errors.Join(errs...)
}

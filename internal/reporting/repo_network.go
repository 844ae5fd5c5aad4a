package reporting

import (
	"context"

	"telecom-network/internal/communications"
	"telecom-network/internal/network"
)

// NetworkRepo reads reports straight from the live network.
type NetworkRepo struct {
	svc *network.Service
}

func NewNetworkRepo(svc *network.Service) *NetworkRepo { return &NetworkRepo{svc: svc} }

func (r *NetworkRepo) ListClientBalances(ctx context.Context) ([]ClientBalance, error) {
	var out []ClientBalance
	err := r.svc.Do(func(n *network.Network) error {
		for _, c := range n.Clients() {
			a, err := n.ClientAccount(c.Key())
			if err != nil {
				return err
			}
			out = append(out, ClientBalance{Key: c.Key(), Name: c.Name(), Paid: a.Paid, Owed: a.Owed, Balance: a.Balance()})
		}
		return nil
	})
	return out, err
}

func (r *NetworkRepo) ListTerminalUsage(ctx context.Context) ([]TerminalUsage, error) {
	var out []TerminalUsage
	err := r.svc.Do(func(n *network.Network) error {
		for _, t := range n.Terminals() {
			a, err := n.TerminalAccount(t.Key())
			if err != nil {
				return err
			}
			out = append(out, TerminalUsage{
				Key:            t.Key(),
				OwnerKey:       t.OwnerKey(),
				State:          t.State(),
				Communications: t.CommunicationCount(),
				Paid:           a.Paid,
				Owed:           a.Owed,
				Balance:        a.Balance(),
			})
		}
		return nil
	})
	return out, err
}

func (r *NetworkRepo) ListClientCommunications(ctx context.Context, clientKey string, dir Direction) ([]communications.Communication, error) {
	var out []communications.Communication
	err := r.svc.Do(func(n *network.Network) error {
		ts, err := n.ClientTerminals(clientKey)
		if err != nil {
			return err
		}
		for _, t := range ts {
			keys := t.Made()
			if dir == DirectionReceived {
				keys = t.Received()
			}
			out = append(out, n.CommunicationsOf(keys)...)
		}
		return nil
	})
	return out, err
}

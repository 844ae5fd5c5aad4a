package network

import (
	"telecom-network/internal/clients"
	"telecom-network/internal/terminals"
)

// Account is derived on every read from the communications made; it is never stored.
// Owed + Balance() == Paid always holds.
type Account struct {
	Paid int64 `json:"paid"`
	Owed int64 `json:"owed"`
}

func (a Account) Balance() int64 { return a.Paid - a.Owed }

func (a Account) add(b Account) Account {
	return Account{Paid: a.Paid + b.Paid, Owed: a.Owed + b.Owed}
}

func (n *Network) TerminalAccount(key string) (Account, error) {
	t, err := n.Terminal(key)
	if err != nil {
		return Account{}, err
	}
	return n.terminalAccount(t), nil
}

func (n *Network) ClientAccount(key string) (Account, error) {
	c, err := n.Client(key)
	if err != nil {
		return Account{}, err
	}
	return n.clientAccount(c), nil
}

// Totals sums every client account.
func (n *Network) Totals() Account {
	var total Account
	for _, c := range n.clients {
		total = total.add(n.clientAccount(c))
	}
	return total
}

func (n *Network) terminalAccount(t *terminals.Terminal) Account {
	var a Account
	for _, k := range t.Made() {
		c, ok := n.comms[k]
		if !ok || !c.IsFinished() {
			continue
		}
		if c.Paid {
			a.Paid += c.Price
		} else {
			a.Owed += c.Price
		}
	}
	return a
}

func (n *Network) clientAccount(c *clients.Client) Account {
	var a Account
	for _, k := range c.Terminals() {
		if t, ok := n.terminals[k]; ok {
			a = a.add(n.terminalAccount(t))
		}
	}
	return a
}

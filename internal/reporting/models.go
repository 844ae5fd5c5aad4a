package reporting

import "telecom-network/internal/terminals"

// ClientBalance is one client's derived account.
type ClientBalance struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Paid    int64  `json:"paid"`
	Owed    int64  `json:"owed"`
	Balance int64  `json:"balance"`
}

// TerminalUsage is one terminal's activity and derived account.
type TerminalUsage struct {
	Key            string          `json:"key"`
	OwnerKey       string          `json:"owner"`
	State          terminals.State `json:"state"`
	Communications int             `json:"communications"`
	Paid           int64           `json:"paid"`
	Owed           int64           `json:"owed"`
	Balance        int64           `json:"balance"`
}

// Totals sums every client account in the network.
type Totals struct {
	Paid    int64 `json:"paid"`
	Owed    int64 `json:"owed"`
	Balance int64 `json:"balance"`
}

// Direction selects made or received communications.
type Direction string

const (
	DirectionMade     Direction = "made"
	DirectionReceived Direction = "received"
)

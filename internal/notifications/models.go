package notifications

import "telecom-network/internal/terminals"

// Kind names the state change that made a terminal reachable again.
type Kind string

const (
	KindOffToIdle     Kind = "O2I"
	KindOffToSilence  Kind = "O2S"
	KindSilenceToIdle Kind = "S2I"
	KindBusyToIdle    Kind = "B2I"
)

// Notification tells a client that a terminal it failed to reach is available.
type Notification struct {
	Kind        Kind   `json:"kind"`
	TerminalKey string `json:"terminal"`
	ClientKey   string `json:"client"`
}

// KindFor maps a state change to the notification it triggers, if any.
//
// Text can reach a silenced terminal, so leaving Off for Silence is worth a notice;
// voice and video need Idle.
func KindFor(from, to terminals.State) (Kind, bool) {
	switch {
	case from == terminals.StateOff && to == terminals.StateIdle:
		return KindOffToIdle, true
	case from == terminals.StateOff && to == terminals.StateSilence:
		return KindOffToSilence, true
	case from == terminals.StateSilence && to == terminals.StateIdle:
		return KindSilenceToIdle, true
	case from == terminals.StateBusy && to == terminals.StateIdle:
		return KindBusyToIdle, true
	default:
		return "", false
	}
}

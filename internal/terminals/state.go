package terminals

import (
	"errors"
	"fmt"
	"strings"

	"telecom-network/internal/communications"
)

// State is the status of a terminal. Exactly one is current at any time.
type State uint8

const (
	StateIdle State = iota
	StateBusy
	StateOff
	StateSilence
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateBusy:
		return "BUSY"
	case StateOff:
		return "OFF"
	case StateSilence:
		return "SILENCE"
	default:
		return "UNKNOWN"
	}
}

// ParseState accepts the display labels plus the import alias ON for Idle.
func ParseState(s string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IDLE", "ON":
		return StateIdle, nil
	case "BUSY":
		return StateBusy, nil
	case "OFF":
		return StateOff, nil
	case "SILENCE":
		return StateSilence, nil
	default:
		return 0, fmt.Errorf("terminals: unknown state %q", s)
	}
}

// MarshalText keeps snapshots readable.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Request is something asked of a terminal's state machine.
type Request uint8

const (
	RequestToSilence Request = iota + 1
	RequestToOff
	RequestToOn
	RequestStart
	RequestReceive
	RequestEnd
)

func (r Request) String() string {
	switch r {
	case RequestToSilence:
		return "to_silence"
	case RequestToOff:
		return "to_off"
	case RequestToOn:
		return "to_on"
	case RequestStart:
		return "start"
	case RequestReceive:
		return "receive"
	case RequestEnd:
		return "end"
	default:
		return "unknown"
	}
}

var (
	ErrOffTerminal       = errors.New("terminal is off")
	ErrSilencedTerminal  = errors.New("terminal is silenced")
	ErrBusyTerminal      = errors.New("terminal is busy")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Outcome is one cell of the transition table.
//
// Save means the state left behind is remembered so that End can restore it.
// Restore means the resulting state is the remembered one, not To.
type Outcome struct {
	To      State
	Save    bool
	Restore bool
	Err     error
}

// Allowed reports whether the request may proceed.
func (o Outcome) Allowed() bool { return o.Err == nil }

// transitions is the whole state machine. Busy blocks every manual switch.
// Off cannot go straight to Silence; it has to be switched on first.
var transitions = map[State]map[Request]Outcome{
	StateIdle: {
		RequestToSilence: {To: StateSilence},
		RequestToOff:     {To: StateOff},
		RequestToOn:      {Err: ErrInvalidTransition},
		RequestStart:     {To: StateBusy, Save: true},
		RequestReceive:   {To: StateBusy, Save: true},
		RequestEnd:       {Err: communications.ErrInvalidCommunication},
	},
	StateSilence: {
		RequestToSilence: {Err: ErrInvalidTransition},
		RequestToOff:     {To: StateOff},
		RequestToOn:      {To: StateIdle},
		RequestStart:     {To: StateBusy, Save: true},
		RequestReceive:   {Err: ErrSilencedTerminal},
		RequestEnd:       {Err: communications.ErrInvalidCommunication},
	},
	StateOff: {
		RequestToSilence: {Err: ErrInvalidTransition},
		RequestToOff:     {Err: ErrInvalidTransition},
		RequestToOn:      {To: StateIdle},
		RequestStart:     {Err: ErrOffTerminal},
		RequestReceive:   {Err: ErrOffTerminal},
		RequestEnd:       {Err: communications.ErrInvalidCommunication},
	},
	StateBusy: {
		RequestToSilence: {Err: ErrInvalidTransition},
		RequestToOff:     {Err: ErrBusyTerminal},
		RequestToOn:      {Err: ErrBusyTerminal},
		RequestStart:     {Err: ErrBusyTerminal},
		RequestReceive:   {Err: ErrBusyTerminal},
		RequestEnd:       {Restore: true},
	},
}

// Transition looks up the table. Unknown pairs are invalid transitions.
func Transition(from State, req Request) Outcome {
	row, ok := transitions[from]
	if !ok {
		return Outcome{Err: ErrInvalidTransition}
	}
	out, ok := row[req]
	if !ok {
		return Outcome{Err: ErrInvalidTransition}
	}
	return out
}

// States lists every state, in declaration order.
func States() []State {
	return []State{StateIdle, StateBusy, StateOff, StateSilence}
}

// Requests lists every request, in declaration order.
func Requests() []Request {
	return []Request{RequestToSilence, RequestToOff, RequestToOn, RequestStart, RequestReceive, RequestEnd}
}

package terminals

import (
	"errors"
	"testing"

	"telecom-network/internal/communications"
)

func TestTransitionTableIsComplete(t *testing.T) {
	for _, s := range States() {
		for _, r := range Requests() {
			if _, ok := transitions[s][r]; !ok {
				t.Fatalf("missing transition for %s/%s", s, r)
			}
		}
	}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from State
		req  Request
		to   State
		err  error
	}{
		{StateIdle, RequestToSilence, StateSilence, nil},
		{StateIdle, RequestToOff, StateOff, nil},
		{StateIdle, RequestToOn, 0, ErrInvalidTransition},
		{StateIdle, RequestStart, StateBusy, nil},
		{StateIdle, RequestReceive, StateBusy, nil},
		{StateIdle, RequestEnd, 0, communications.ErrInvalidCommunication},

		{StateSilence, RequestToSilence, 0, ErrInvalidTransition},
		{StateSilence, RequestToOff, StateOff, nil},
		{StateSilence, RequestToOn, StateIdle, nil},
		{StateSilence, RequestStart, StateBusy, nil},
		{StateSilence, RequestReceive, 0, ErrSilencedTerminal},

		{StateOff, RequestToSilence, 0, ErrInvalidTransition},
		{StateOff, RequestToOff, 0, ErrInvalidTransition},
		{StateOff, RequestToOn, StateIdle, nil},
		{StateOff, RequestStart, 0, ErrOffTerminal},
		{StateOff, RequestReceive, 0, ErrOffTerminal},

		{StateBusy, RequestToSilence, 0, ErrInvalidTransition},
		{StateBusy, RequestToOff, 0, ErrBusyTerminal},
		{StateBusy, RequestToOn, 0, ErrBusyTerminal},
		{StateBusy, RequestStart, 0, ErrBusyTerminal},
		{StateBusy, RequestReceive, 0, ErrBusyTerminal},
	}
	for _, tc := range cases {
		out := Transition(tc.from, tc.req)
		if tc.err != nil {
			if !errors.Is(out.Err, tc.err) {
				t.Fatalf("%s/%s: expected %v, got %v", tc.from, tc.req, tc.err, out.Err)
			}
			continue
		}
		if out.Err != nil {
			t.Fatalf("%s/%s: unexpected err %v", tc.from, tc.req, out.Err)
		}
		if out.To != tc.to {
			t.Fatalf("%s/%s: expected %s, got %s", tc.from, tc.req, tc.to, out.To)
		}
	}

	if out := Transition(StateBusy, RequestEnd); !out.Allowed() || !out.Restore {
		t.Fatalf("busy/end must restore the saved state: %+v", out)
	}
}

func TestParseState(t *testing.T) {
	for in, want := range map[string]State{"ON": StateIdle, "idle": StateIdle, "OFF": StateOff, "SILENCE": StateSilence, "BUSY": StateBusy} {
		got, err := ParseState(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s %v", in, want, got, err)
		}
	}
	if _, err := ParseState("SLEEP"); err == nil {
		t.Fatalf("expected error")
	}
}

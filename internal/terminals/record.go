package terminals

import (
	"fmt"
	"slices"
)

// Record is the plain, serializable form of a Terminal.
type Record struct {
	Key            string   `json:"key"`
	Kind           Kind     `json:"kind"`
	OwnerKey       string   `json:"owner"`
	State          State    `json:"state"`
	SavedState     State    `json:"saved_state"`
	Current        int      `json:"current,omitempty"`
	Made           []int    `json:"made,omitempty"`
	Received       []int    `json:"received,omitempty"`
	Friends        []string `json:"friends,omitempty"`
	FailedContacts []string `json:"failed_contacts,omitempty"`
}

func (t *Terminal) Record() Record {
	return Record{
		Key:            t.key,
		Kind:           t.kind,
		OwnerKey:       t.ownerKey,
		State:          t.state,
		SavedState:     t.saved,
		Current:        t.current,
		Made:           slices.Clone(t.made),
		Received:       slices.Clone(t.received),
		Friends:        slices.Clone(t.friends),
		FailedContacts: slices.Clone(t.failedContacts),
	}
}

// FromRecord rebuilds a terminal, rejecting records that break the busy invariant.
func FromRecord(r Record) (*Terminal, error) {
	initial := r.State
	if initial == StateBusy {
		initial = StateIdle
	}
	t, err := New(r.Key, r.Kind, r.OwnerKey, initial)
	if err != nil {
		return nil, err
	}
	busy := r.State == StateBusy
	if busy != (r.Current != 0) {
		return nil, fmt.Errorf("terminals: record %s: busy state and current communication disagree", r.Key)
	}
	if busy && r.SavedState == StateBusy {
		return nil, fmt.Errorf("terminals: record %s: saved state cannot be busy", r.Key)
	}

	t.state = r.State
	if busy {
		t.saved = r.SavedState
	}
	t.current = r.Current
	t.made = sortedUnique(r.Made)
	t.received = sortedUnique(r.Received)
	for _, f := range r.Friends {
		if err := t.AddFriend(f); err != nil {
			return nil, fmt.Errorf("terminals: record %s: %w", r.Key, err)
		}
	}
	for _, c := range r.FailedContacts {
		t.AddFailedContact(c)
	}
	if busy && !slices.Contains(t.made, r.Current) && !slices.Contains(t.received, r.Current) {
		return nil, fmt.Errorf("terminals: record %s: current communication %d is unknown", r.Key, r.Current)
	}
	return t, nil
}

func sortedUnique(keys []int) []int {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

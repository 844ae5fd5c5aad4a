package terminals

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"telecom-network/internal/communications"
)

type Kind string

const (
	KindBasic Kind = "BASIC"
	KindFancy Kind = "FANCY"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindBasic:
		return KindBasic, nil
	case KindFancy:
		return KindFancy, nil
	default:
		return "", fmt.Errorf("terminals: unknown kind %q", s)
	}
}

// Supports reports whether the terminal kind can take part in a communication type.
// Basic terminals have no camera.
func (k Kind) Supports(t communications.Type) bool {
	return t != communications.TypeVideo || k == KindFancy
}

var (
	ErrInvalidKey               = errors.New("terminal key must be 6 digits")
	ErrUnsupportedAtOrigin      = errors.New("communication type unsupported at origin")
	ErrUnsupportedAtDestination = errors.New("communication type unsupported at destination")
	ErrInvalidFriend            = errors.New("invalid friend")
)

var keyPattern = regexp.MustCompile(`^[0-9]{6}$`)

func ValidKey(key string) bool { return keyPattern.MatchString(key) }

// Terminal is an endpoint owned by one client.
//
// Invariants:
// - state is Busy iff current != 0 (the network also checks the communication is Ongoing)
// - made/received only grow and stay sorted by communication key
// - saved is only meaningful while Busy
type Terminal struct {
	key      string
	kind     Kind
	ownerKey string

	state State
	saved State

	current  int
	made     []int
	received []int

	friends []string

	// failedContacts are client keys that could not reach this terminal,
	// to be notified when it becomes reachable again.
	failedContacts []string
}

// New creates a terminal in the requested initial state. Busy cannot be requested.
func New(key string, kind Kind, ownerKey string, initial State) (*Terminal, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if kind != KindBasic && kind != KindFancy {
		return nil, fmt.Errorf("terminals: unknown kind %q", kind)
	}
	if ownerKey == "" {
		return nil, errors.New("terminals: owner required")
	}
	if initial == StateBusy {
		return nil, fmt.Errorf("%w: cannot register a busy terminal", ErrInvalidTransition)
	}
	return &Terminal{key: key, kind: kind, ownerKey: ownerKey, state: initial}, nil
}

func (t *Terminal) Key() string       { return t.key }
func (t *Terminal) Kind() Kind        { return t.kind }
func (t *Terminal) OwnerKey() string  { return t.ownerKey }
func (t *Terminal) State() State      { return t.state }
func (t *Terminal) SavedState() State { return t.saved }

// CurrentCommunication returns the key of the in-progress communication, if any.
func (t *Terminal) CurrentCommunication() (int, bool) {
	return t.current, t.current != 0
}

func (t *Terminal) Made() []int     { return slices.Clone(t.made) }
func (t *Terminal) Received() []int { return slices.Clone(t.received) }
func (t *Terminal) Friends() []string {
	return slices.Clone(t.friends)
}

func (t *Terminal) CommunicationCount() int { return len(t.made) + len(t.received) }

func (t *Terminal) IsFriend(key string) bool {
	_, ok := slices.BinarySearch(t.friends, key)
	return ok
}

// HasMade reports whether the communication was made by this terminal.
func (t *Terminal) HasMade(commKey int) bool {
	_, ok := slices.BinarySearch(t.made, commKey)
	return ok
}

// CanStartCommunication is true when the terminal is neither off nor busy.
func (t *Terminal) CanStartCommunication() bool {
	return t.state != StateBusy && t.state != StateOff
}

// CanEndCurrentCommunication is true when busy with a communication this terminal originated.
func (t *Terminal) CanEndCurrentCommunication() bool {
	return t.state == StateBusy && t.current != 0 && t.HasMade(t.current)
}

// Switch applies a manual state change (to silence, off or on) and returns the previous state.
func (t *Terminal) Switch(req Request) (State, error) {
	switch req {
	case RequestToSilence, RequestToOff, RequestToOn:
	default:
		return t.state, fmt.Errorf("%w: %s is not a manual switch", ErrInvalidTransition, req)
	}
	out := Transition(t.state, req)
	if !out.Allowed() {
		return t.state, fmt.Errorf("%w: terminal %s is %s", out.Err, t.key, t.state)
	}
	prev := t.state
	t.state = out.To
	return prev, nil
}

// CheckStart reports, without mutating, whether this terminal may originate a communication.
func (t *Terminal) CheckStart() error {
	return t.check(RequestStart)
}

// CheckReceive reports, without mutating, whether this terminal may accept a communication.
func (t *Terminal) CheckReceive() error {
	return t.check(RequestReceive)
}

// CheckEnd reports whether this terminal may end its current communication.
func (t *Terminal) CheckEnd() error {
	if !t.CanEndCurrentCommunication() {
		return fmt.Errorf("%w: terminal %s has no communication to end", communications.ErrInvalidCommunication, t.key)
	}
	return nil
}

func (t *Terminal) check(req Request) error {
	out := Transition(t.state, req)
	if !out.Allowed() {
		return fmt.Errorf("%w: terminal %s", out.Err, t.key)
	}
	return nil
}

// BeginMade records commKey as made and current, and moves to Busy.
func (t *Terminal) BeginMade(commKey int) error {
	if err := t.begin(RequestStart, commKey); err != nil {
		return err
	}
	t.made = insertSorted(t.made, commKey)
	return nil
}

// BeginReceived records commKey as received and current, and moves to Busy.
func (t *Terminal) BeginReceived(commKey int) error {
	if err := t.begin(RequestReceive, commKey); err != nil {
		return err
	}
	t.received = insertSorted(t.received, commKey)
	return nil
}

func (t *Terminal) begin(req Request, commKey int) error {
	out := Transition(t.state, req)
	if !out.Allowed() {
		return fmt.Errorf("%w: terminal %s", out.Err, t.key)
	}
	if commKey <= 0 {
		return fmt.Errorf("%w: key must be positive", communications.ErrInvalidCommunication)
	}
	if out.Save {
		t.saved = t.state
	}
	t.state = out.To
	t.current = commKey
	return nil
}

// Release drops the current communication and restores the saved state.
// Both parties of an interactive communication are released when it ends.
func (t *Terminal) Release() (State, error) {
	out := Transition(t.state, RequestEnd)
	if !out.Allowed() || t.current == 0 {
		return t.state, fmt.Errorf("%w: terminal %s is not busy", communications.ErrInvalidCommunication, t.key)
	}
	prev := t.state
	t.state = t.saved
	t.saved = StateIdle
	t.current = 0
	return prev, nil
}

// RecordMade registers a communication that does not touch the state machine (text).
func (t *Terminal) RecordMade(commKey int) { t.made = insertSorted(t.made, commKey) }

// RecordReceived registers a received text.
func (t *Terminal) RecordReceived(commKey int) { t.received = insertSorted(t.received, commKey) }

// AddFriend adds a terminal key. Adding an existing friend is a no-op.
func (t *Terminal) AddFriend(key string) error {
	if key == t.key {
		return fmt.Errorf("%w: terminal %s cannot befriend itself", ErrInvalidFriend, key)
	}
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if i, ok := slices.BinarySearch(t.friends, key); !ok {
		t.friends = slices.Insert(t.friends, i, key)
	}
	return nil
}

// RemoveFriend removes a terminal key, reporting whether it was present.
func (t *Terminal) RemoveFriend(key string) bool {
	i, ok := slices.BinarySearch(t.friends, key)
	if ok {
		t.friends = slices.Delete(t.friends, i, i+1)
	}
	return ok
}

// AddFailedContact remembers a client that could not reach this terminal.
func (t *Terminal) AddFailedContact(clientKey string) {
	if !slices.Contains(t.failedContacts, clientKey) {
		t.failedContacts = append(t.failedContacts, clientKey)
	}
}

func (t *Terminal) FailedContacts() []string { return slices.Clone(t.failedContacts) }

// TakeFailedContacts returns and clears the pending failed contacts.
func (t *Terminal) TakeFailedContacts() []string {
	out := t.failedContacts
	t.failedContacts = nil
	return out
}

func insertSorted(keys []int, k int) []int {
	i, ok := slices.BinarySearch(keys, k)
	if ok {
		return keys
	}
	return slices.Insert(keys, i, k)
}

package snapshot

import (
	"errors"
	"fmt"

	"telecom-network/internal/clients"
	"telecom-network/internal/communications"
	"telecom-network/internal/terminals"
)

// Version is bumped whenever a record shape changes incompatibly.
const Version = 1

var (
	ErrNoSnapshot         = errors.New("snapshot: none stored")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
)

// Snapshot is the whole network as plain records.
// Cross references are keys only: terminal owner, communication endpoints,
// terminal made/received lists.
type Snapshot struct {
	Version              int                            `json:"version"`
	NextCommunicationKey int                            `json:"next_communication_key"`
	Clients              []clients.Record               `json:"clients"`
	Terminals            []terminals.Record             `json:"terminals"`
	Communications       []communications.Communication `json:"communications"`
}

// CheckVersion rejects snapshots written by an incompatible version.
func (s Snapshot) CheckVersion() error {
	if s.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	return nil
}

package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"telecom-network/internal/terminals"
)

var (
	ErrUnrecognizedEntry = errors.New("unrecognized import entry")
	ErrInvalidEntry      = errors.New("invalid import entry")
)

// ImportResult counts what an import added.
type ImportResult struct {
	Clients   int `json:"clients"`
	Terminals int `json:"terminals"`
	Friends   int `json:"friends"`
}

// Import reads the pipe-delimited format, one entry per line:
//
//	CLIENT|key|name|taxid
//	BASIC|key|clientKey|ON|OFF|SILENCE
//	FANCY|key|clientKey|ON|OFF|SILENCE
//	FRIENDS|terminalKey|friend1,friend2
//
// Blank lines are skipped. The import is all or nothing: on error the
// network is left as it was and the error names the line.
func (n *Network) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	before := n.Snapshot()
	wasDirty := n.dirty

	res, err := n.importLines(ctx, r)
	if err != nil {
		if rerr := n.Restore(before); rerr != nil {
			return ImportResult{}, errors.Join(err, rerr)
		}
		n.dirty = wasDirty
		return ImportResult{}, err
	}
	n.log.InfoContext(ctx, "import done", "clients", res.Clients, "terminals", res.Terminals, "friends", res.Friends)
	return res, nil
}

// ImportFile imports from a file on disk.
func (n *Network) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, err
	}
	defer f.Close()
	return n.Import(ctx, f)
}

func (n *Network) importLines(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return res, err
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if err := n.importEntry(text, &res); err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("reading import: %w", err)
	}
	return res, nil
}

func (n *Network) importEntry(text string, res *ImportResult) error {
	fields := strings.Split(text, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	switch strings.ToUpper(fields[0]) {
	case "CLIENT":
		if len(fields) != 4 {
			return fmt.Errorf("%w: CLIENT needs 4 fields, got %d", ErrInvalidEntry, len(fields))
		}
		if _, err := n.RegisterClient(fields[1], fields[2], fields[3]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
		res.Clients++

	case string(terminals.KindBasic), string(terminals.KindFancy):
		if len(fields) != 4 {
			return fmt.Errorf("%w: %s needs 4 fields, got %d", ErrInvalidEntry, fields[0], len(fields))
		}
		kind, err := terminals.ParseKind(fields[0])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
		state, err := parseImportState(fields[3])
		if err != nil {
			return err
		}
		if _, err := n.RegisterTerminal(fields[1], kind, fields[2], state); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
		res.Terminals++

	case "FRIENDS":
		if len(fields) != 3 {
			return fmt.Errorf("%w: FRIENDS needs 3 fields, got %d", ErrInvalidEntry, len(fields))
		}
		for _, f := range strings.Split(fields[2], ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if err := n.AddFriend(fields[1], f); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
			}
			res.Friends++
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnrecognizedEntry, fields[0])
	}
	return nil
}

// parseImportState accepts ON, OFF and SILENCE only.
func parseImportState(s string) (terminals.State, error) {
	switch strings.ToUpper(s) {
	case "ON":
		return terminals.StateIdle, nil
	case "OFF":
		return terminals.StateOff, nil
	case "SILENCE":
		return terminals.StateSilence, nil
	default:
		return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, s)
	}
}

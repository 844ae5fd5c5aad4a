// Package display renders network entities as pipe-delimited lines.
package display

import (
	"fmt"
	"strconv"
	"strings"

	"telecom-network/internal/clients"
	"telecom-network/internal/communications"
	"telecom-network/internal/notifications"
	"telecom-network/internal/terminals"
)

// ClientLine is a client with its derived account.
type ClientLine struct {
	Client *clients.Client
	Paid   int64
	Owed   int64
}

// TerminalLine is a terminal with its derived account.
type TerminalLine struct {
	Terminal *terminals.Terminal
	Paid     int64
	Owed     int64
}

// Format renders one value:
//
//	CLIENT|key|name|taxid|tier|YES|terminals|paid|owed
//	FANCY|key|owner|state|paid|owed[|friend,friend]
//	VOICE|key|sender|receiver|length|price|status
//	O2I|terminal
func Format(v any) string {
	switch x := v.(type) {
	case ClientLine:
		c := x.Client
		return join("CLIENT", c.Key(), c.Name(), c.TaxID(), string(c.Tier()),
			yesNo(c.NotificationsEnabled()), strconv.Itoa(len(c.Terminals())),
			money(x.Paid), money(x.Owed))
	case TerminalLine:
		t := x.Terminal
		fields := []string{string(t.Kind()), t.Key(), t.OwnerKey(), t.State().String(), money(x.Paid), money(x.Owed)}
		if friends := t.Friends(); len(friends) > 0 {
			fields = append(fields, strings.Join(friends, ","))
		}
		return join(fields...)
	case communications.Communication:
		return join(string(x.Type), strconv.Itoa(x.Key), x.SenderKey, x.ReceiverKey,
			strconv.Itoa(x.Length), money(x.Price), string(x.Status))
	case notifications.Notification:
		return join(string(x.Kind), x.TerminalKey)
	default:
		return fmt.Sprint(v)
	}
}

// Lines formats each item on its own line.
func Lines[T any](items []T) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Format(it))
	}
	return b.String()
}

func join(fields ...string) string { return strings.Join(fields, "|") }

func money(v int64) string { return strconv.FormatInt(v, 10) }

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

package clients

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"telecom-network/internal/communications"
	"telecom-network/internal/notifications"
	"telecom-network/internal/pricing"
)

var (
	ErrInvalidClient                = errors.New("invalid client")
	ErrNotificationsAlreadyEnabled  = errors.New("client notifications already enabled")
	ErrNotificationsAlreadyDisabled = errors.New("client notifications already disabled")
)

// Tier thresholds.
const (
	// GoldBalance is the balance a NORMAL client must exceed after a payment to become GOLD.
	GoldBalance int64 = 500
	// PlatinumVideoStreak consecutive videos promote a GOLD client with no debt.
	PlatinumVideoStreak = 5
	// GoldTextStreak consecutive texts move a PLATINUM client with no debt back to GOLD.
	GoldTextStreak = 2
)

// Client owns terminals and pays for what they make.
//
// Owed, paid and balance are never stored here; the network recomputes them from
// the communications made by the client's terminals.
type Client struct {
	key   string
	name  string
	taxID string

	terminals []string

	plan pricing.Strategy
	tier pricing.Tier

	notificationsEnabled bool
	inbox                []notifications.Notification

	// failedContacts counts, per receiving client key, attempts that found the receiver unreachable.
	failedContacts map[string]int

	streakType communications.Type
	streak     int
}

func New(key, name, taxID string, plan pricing.Strategy) (*Client, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, "|\n") {
		return nil, fmt.Errorf("%w: bad key %q", ErrInvalidClient, key)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidClient)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: pricing plan required", ErrInvalidClient)
	}
	return &Client{
		key:                  key,
		name:                 name,
		taxID:                taxID,
		plan:                 plan,
		tier:                 pricing.TierNormal,
		notificationsEnabled: true,
		failedContacts:       map[string]int{},
	}, nil
}

func (c *Client) Key() string                { return c.key }
func (c *Client) Name() string               { return c.name }
func (c *Client) TaxID() string              { return c.taxID }
func (c *Client) Tier() pricing.Tier         { return c.tier }
func (c *Client) Plan() pricing.Strategy     { return c.plan }
func (c *Client) NotificationsEnabled() bool { return c.notificationsEnabled }
func (c *Client) Terminals() []string        { return slices.Clone(c.terminals) }

// SetPlan swaps the active pricing plan. Already priced communications keep their price.
func (c *Client) SetPlan(plan pricing.Strategy) error {
	if plan == nil {
		return fmt.Errorf("%w: pricing plan required", ErrInvalidClient)
	}
	c.plan = plan
	return nil
}

func (c *Client) AddTerminal(key string) {
	if i, ok := slices.BinarySearch(c.terminals, key); !ok {
		c.terminals = slices.Insert(c.terminals, i, key)
	}
}

func (c *Client) OwnsTerminal(key string) bool {
	_, ok := slices.BinarySearch(c.terminals, key)
	return ok
}

func (c *Client) SetNotifications(enabled bool) error {
	if enabled == c.notificationsEnabled {
		if enabled {
			return ErrNotificationsAlreadyEnabled
		}
		return ErrNotificationsAlreadyDisabled
	}
	c.notificationsEnabled = enabled
	return nil
}

// Deliver puts a notification in the inbox. Returns false when notifications are disabled.
func (c *Client) Deliver(n notifications.Notification) bool {
	if !c.notificationsEnabled {
		return false
	}
	c.inbox = append(c.inbox, n)
	return true
}

func (c *Client) Inbox() []notifications.Notification { return slices.Clone(c.inbox) }

// DrainInbox returns pending notifications in delivery order and empties the inbox.
func (c *Client) DrainInbox() []notifications.Notification {
	out := c.inbox
	c.inbox = nil
	return out
}

// RecordFailedContact counts an attempt by this client that could not reach receiverClientKey.
func (c *Client) RecordFailedContact(receiverClientKey string) {
	c.failedContacts[receiverClientKey]++
}

func (c *Client) FailedContactsWith(clientKey string) int { return c.failedContacts[clientKey] }

func (c *Client) FailedContacts() map[string]int { return maps.Clone(c.failedContacts) }

// OnPayment applies the tier rule checked after a payment. Reports whether the tier changed.
func (c *Client) OnPayment(balance int64) bool {
	if c.tier == pricing.TierNormal && balance > GoldBalance {
		c.setTier(pricing.TierGold)
		return true
	}
	return false
}

// OnCommunicationMade tracks the streak and applies the tier rules checked after each
// communication made. Reports whether the tier changed.
func (c *Client) OnCommunicationMade(t communications.Type, balance int64) bool {
	if t == c.streakType {
		c.streak++
	} else {
		c.streakType = t
		c.streak = 1
	}

	switch c.tier {
	case pricing.TierGold:
		if balance < 0 {
			c.setTier(pricing.TierNormal)
			return true
		}
		if c.streakType == communications.TypeVideo && c.streak >= PlatinumVideoStreak {
			c.setTier(pricing.TierPlatinum)
			return true
		}
	case pricing.TierPlatinum:
		if balance < 0 {
			c.setTier(pricing.TierNormal)
			return true
		}
		if c.streakType == communications.TypeText && c.streak >= GoldTextStreak {
			c.setTier(pricing.TierGold)
			return true
		}
	}
	return false
}

func (c *Client) setTier(t pricing.Tier) {
	c.tier = t
	c.streakType = ""
	c.streak = 0
}

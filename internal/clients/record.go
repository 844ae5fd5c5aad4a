package clients

import (
	"fmt"
	"maps"
	"slices"

	"telecom-network/internal/communications"
	"telecom-network/internal/notifications"
	"telecom-network/internal/pricing"
)

// Record is the plain, serializable form of a Client. The plan is stored by name.
type Record struct {
	Key                  string                       `json:"key"`
	Name                 string                       `json:"name"`
	TaxID                string                       `json:"tax_id"`
	Terminals            []string                     `json:"terminals,omitempty"`
	Plan                 string                       `json:"plan"`
	Tier                 pricing.Tier                 `json:"tier"`
	NotificationsEnabled bool                         `json:"notifications_enabled"`
	Inbox                []notifications.Notification `json:"inbox,omitempty"`
	FailedContacts       map[string]int               `json:"failed_contacts,omitempty"`
	StreakType           communications.Type          `json:"streak_type,omitempty"`
	Streak               int                          `json:"streak,omitempty"`
}

func (c *Client) Record() Record {
	return Record{
		Key:                  c.key,
		Name:                 c.name,
		TaxID:                c.taxID,
		Terminals:            slices.Clone(c.terminals),
		Plan:                 c.plan.Name(),
		Tier:                 c.tier,
		NotificationsEnabled: c.notificationsEnabled,
		Inbox:                slices.Clone(c.inbox),
		FailedContacts:       maps.Clone(c.failedContacts),
		StreakType:           c.streakType,
		Streak:               c.streak,
	}
}

// FromRecord rebuilds a client with an already resolved plan.
func FromRecord(r Record, plan pricing.Strategy) (*Client, error) {
	c, err := New(r.Key, r.Name, r.TaxID, plan)
	if err != nil {
		return nil, err
	}
	tier, err := pricing.ParseTier(string(r.Tier))
	if err != nil {
		return nil, fmt.Errorf("clients: record %s: %w", r.Key, err)
	}
	if r.Streak < 0 {
		return nil, fmt.Errorf("%w: record %s: negative streak", ErrInvalidClient, r.Key)
	}
	c.tier = tier
	c.notificationsEnabled = r.NotificationsEnabled
	c.inbox = slices.Clone(r.Inbox)
	for k, n := range r.FailedContacts {
		c.failedContacts[k] = n
	}
	c.streakType = r.StreakType
	c.streak = r.Streak
	for _, t := range r.Terminals {
		c.AddTerminal(t)
	}
	return c, nil
}

package pricing

import (
	"fmt"
	"strings"
)

// Pricing models are client-tier scoped.
// Amounts are expressed in minor units using int64; no floating point anywhere.

type Tier string

const (
	TierNormal   Tier = "NORMAL"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierNormal:
		return TierNormal, nil
	case TierGold:
		return TierGold, nil
	case TierPlatinum:
		return TierPlatinum, nil
	default:
		return "", fmt.Errorf("pricing: unknown tier %q", s)
	}
}

// Text length buckets, in characters.
const (
	ShortTextLimit  = 50
	MediumTextLimit = 100
)

// TextRates prices a text by length bucket.
// Long texts cost LongFlat + LongPerChar*length.
type TextRates struct {
	Short       int64 `yaml:"short" json:"short"`
	Medium      int64 `yaml:"medium" json:"medium"`
	LongFlat    int64 `yaml:"long_flat" json:"long_flat"`
	LongPerChar int64 `yaml:"long_per_char" json:"long_per_char"`
}

// RateTable is the full price list of one tier.
type RateTable struct {
	Text TextRates `yaml:"text" json:"text"`

	VoicePerUnit int64 `yaml:"voice_per_unit" json:"voice_per_unit"`
	VideoPerUnit int64 `yaml:"video_per_unit" json:"video_per_unit"`

	// BillingIncrementUnits rounds interactive durations up (1 bills every unit as-is).
	BillingIncrementUnits int `yaml:"billing_increment_units" json:"billing_increment_units"`

	// MinimumBillableUnits enforces a minimum charge duration.
	MinimumBillableUnits int `yaml:"minimum_billable_units" json:"minimum_billable_units"`
}

func (t RateTable) validate() error {
	if t.Text.Short < 0 || t.Text.Medium < 0 || t.Text.LongFlat < 0 || t.Text.LongPerChar < 0 {
		return fmt.Errorf("%w: negative text rate", ErrInvalidRates)
	}
	if t.VoicePerUnit < 0 || t.VideoPerUnit < 0 {
		return fmt.Errorf("%w: negative interactive rate", ErrInvalidRates)
	}
	if t.BillingIncrementUnits < 0 || t.MinimumBillableUnits < 0 {
		return fmt.Errorf("%w: negative billing units", ErrInvalidRates)
	}
	return nil
}

// Discounts apply to voice and video only, as whole percentages.
type Discounts struct {
	FriendPercent    int64 `yaml:"friend_percent" json:"friend_percent"`
	SameOwnerPercent int64 `yaml:"same_owner_percent" json:"same_owner_percent"`
}

func (d Discounts) validate() error {
	if d.FriendPercent < 0 || d.FriendPercent > 100 || d.SameOwnerPercent < 0 || d.SameOwnerPercent > 100 {
		return fmt.Errorf("%w: discount percentages must be within 0..100", ErrInvalidRates)
	}
	return nil
}

// RateBook holds one rate table per tier plus the shared discounts.
type RateBook struct {
	Tiers     map[Tier]RateTable `yaml:"tiers" json:"tiers"`
	Discounts Discounts          `yaml:"discounts" json:"discounts"`
}

// Table returns the tier's rates, falling back to NORMAL.
func (b RateBook) Table(t Tier) RateTable {
	if rt, ok := b.Tiers[t]; ok {
		return rt
	}
	return b.Tiers[TierNormal]
}

func (b RateBook) Validate() error {
	if _, ok := b.Tiers[TierNormal]; !ok {
		return fmt.Errorf("%w: NORMAL tier is required", ErrInvalidRates)
	}
	for tier, rt := range b.Tiers {
		if _, err := ParseTier(string(tier)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRates, err)
		}
		if err := rt.validate(); err != nil {
			return fmt.Errorf("tier %s: %w", tier, err)
		}
	}
	return b.Discounts.validate()
}

// DefaultRateBook is the network's standard price list.
func DefaultRateBook() RateBook {
	return RateBook{
		Tiers: map[Tier]RateTable{
			TierNormal: {
				Text:         TextRates{Short: 10, Medium: 16, LongPerChar: 2},
				VoicePerUnit: 20,
				VideoPerUnit: 30,
			},
			TierGold: {
				Text:         TextRates{Short: 10, Medium: 10, LongPerChar: 2},
				VoicePerUnit: 10,
				VideoPerUnit: 20,
			},
			TierPlatinum: {
				Text:         TextRates{Short: 0, Medium: 4, LongFlat: 4},
				VoicePerUnit: 10,
				VideoPerUnit: 10,
			},
		},
		Discounts: Discounts{FriendPercent: 50},
	}
}

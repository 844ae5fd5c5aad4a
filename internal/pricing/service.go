package pricing

import (
	"errors"
	"fmt"
	"math"

	"telecom-network/internal/communications"
)

// Strategy turns a finished communication into a price.
//
// Contract:
// - Pure: same Quote, same price; nothing is mutated.
// - Never negative; a price that does not fit an int64 is ErrPriceOverflow.
// - Called exactly once per communication, when it finishes (text: at creation).
type Strategy interface {
	Name() string
	Price(q Quote) (int64, error)
}

// Quote is everything a strategy may look at.
type Quote struct {
	Type   communications.Type
	Length int

	// Tier is the sender's client tier at pricing time.
	Tier Tier

	// Friends is true when the receiver is a declared friend of the sender.
	Friends bool
	// SameOwner is true when both terminals belong to the same client.
	SameOwner bool
}

var (
	ErrInvalidRates  = errors.New("invalid rates")
	ErrUnknownPlan   = errors.New("unknown pricing plan")
	ErrPlanNameTaken = errors.New("pricing plan already registered")
	ErrPriceOverflow = errors.New("price overflows")
)

// TieredPlan picks the rate table matching the sender's tier.
type TieredPlan struct {
	name string
	book RateBook
}

func NewTieredPlan(name string, book RateBook) *TieredPlan {
	return &TieredPlan{name: name, book: book}
}

func (p *TieredPlan) Name() string { return p.name }

func (p *TieredPlan) Price(q Quote) (int64, error) {
	return PriceWith(p.book.Table(q.Tier), p.book.Discounts, q)
}

// FlatPlan ignores the tier and always prices with one table.
type FlatPlan struct {
	name      string
	table     RateTable
	discounts Discounts
}

func NewFlatPlan(name string, table RateTable, discounts Discounts) *FlatPlan {
	return &FlatPlan{name: name, table: table, discounts: discounts}
}

func (p *FlatPlan) Name() string { return p.name }

func (p *FlatPlan) Price(q Quote) (int64, error) {
	return PriceWith(p.table, p.discounts, q)
}

// PriceWith computes the price of a quote against one table.
func PriceWith(t RateTable, d Discounts, q Quote) (int64, error) {
	if q.Length < 0 {
		return 0, nil
	}
	var (
		price int64
		ok    = true
	)
	switch q.Type {
	case communications.TypeText:
		price, ok = textPrice(t.Text, q.Length)
	case communications.TypeVoice:
		price, ok = interactivePrice(t, t.VoicePerUnit, q.Length)
	case communications.TypeVideo:
		price, ok = interactivePrice(t, t.VideoPerUnit, q.Length)
	default:
		return 0, nil
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s of length %d", ErrPriceOverflow, q.Type, q.Length)
	}
	if q.Type == communications.TypeText {
		return price, nil
	}
	return discounted(price, d, q), nil
}

func textPrice(r TextRates, length int) (int64, bool) {
	switch {
	case length < ShortTextLimit:
		return r.Short, true
	case length < MediumTextLimit:
		return r.Medium, true
	default:
		perChar, ok := mulChecked(r.LongPerChar, int64(length))
		if !ok || perChar > math.MaxInt64-r.LongFlat {
			return 0, false
		}
		return r.LongFlat + perChar, true
	}
}

func interactivePrice(t RateTable, rate int64, units int) (int64, bool) {
	u, ok := billableUnits(units, t.MinimumBillableUnits, t.BillingIncrementUnits)
	if !ok {
		return 0, false
	}
	return mulChecked(rate, int64(u))
}

// mulChecked multiplies two non-negative values, reporting false on overflow.
func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// discounted applies the larger of the friend and same-owner discounts.
func discounted(price int64, d Discounts, q Quote) int64 {
	var pct int64
	if q.Friends && d.FriendPercent > pct {
		pct = d.FriendPercent
	}
	if q.SameOwner && d.SameOwnerPercent > pct {
		pct = d.SameOwnerPercent
	}
	if pct <= 0 {
		return price
	}
	if pct >= 100 {
		return 0
	}
	// price/100 first so the product stays in range for any int64 price
	return price/100*(100-pct) + price%100*(100-pct)/100
}

func billableUnits(actual int, minUnits int, increment int) (int, bool) {
	if actual <= 0 && minUnits <= 0 {
		return 0, true
	}
	if minUnits <= 0 {
		minUnits = 0
	}
	if increment <= 0 {
		increment = 1
	}

	u := actual
	if u < minUnits {
		u = minUnits
	}

	// round up to nearest increment
	q := u / increment
	r := u % increment
	if r != 0 {
		q++
	}
	if q > math.MaxInt/increment {
		return 0, false
	}
	return q * increment, true
}

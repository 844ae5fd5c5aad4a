package pricing

import (
	"fmt"
	"sort"
	"sync"
)

// Plan names registered by NewCatalog.
const (
	PlanBase = "BASE"
	PlanFlat = "FLAT"
)

// Catalog resolves plan names to strategies, so clients (and snapshots)
// only ever carry a name.
type Catalog struct {
	mu    sync.RWMutex
	plans map[string]Strategy
}

// NewCatalog registers the tiered BASE plan and a FLAT plan priced at NORMAL rates.
func NewCatalog(book RateBook) *Catalog {
	c := &Catalog{plans: map[string]Strategy{}}
	c.plans[PlanBase] = NewTieredPlan(PlanBase, book)
	c.plans[PlanFlat] = NewFlatPlan(PlanFlat, book.Table(TierNormal), book.Discounts)
	return c
}

func (c *Catalog) Register(s Strategy) error {
	if s == nil || s.Name() == "" {
		return fmt.Errorf("%w: plan needs a name", ErrInvalidRates)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.plans[s.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrPlanNameTaken, s.Name())
	}
	c.plans[s.Name()] = s
	return nil
}

func (c *Catalog) Find(name string) (Strategy, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.plans[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, name)
	}
	return s, nil
}

// Default is the plan new clients start on.
func (c *Catalog) Default() Strategy {
	s, _ := c.Find(PlanBase)
	return s
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.plans))
	for n := range c.plans {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

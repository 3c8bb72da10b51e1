package domain

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PlanID identifies a plan in the catalog.
type PlanID string

const (
	PlanBasic     PlanID = "BASIC"
	PlanPremium   PlanID = "PREMIUM"
	PlanExclusive PlanID = "EXCLUSIVE"
)

// ParsePlanID normalizes a plan identifier. It does not check the catalog.
func ParsePlanID(s string) PlanID {
	return PlanID(strings.ToUpper(strings.TrimSpace(s)))
}

// Plan is a catalog entry.
type Plan struct {
	ID               PlanID
	DisplayName      string
	Prices           map[BillingCycle]decimal.Decimal
	MaxProfessionals int
	FullMonthlyPrice decimal.Decimal
	Features         []string
}

// PriceFor returns the list price charged per cycle.
func (p Plan) PriceFor(cycle BillingCycle) (decimal.Decimal, error) {
	price, ok := p.Prices[cycle]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s has no %s price", ErrInvalidBillingCycle, p.ID, cycle)
	}
	return price, nil
}

// AllowsProfessionals reports whether n professionals fit the plan.
// A zero limit means unlimited.
func (p Plan) AllowsProfessionals(n int) bool {
	return p.MaxProfessionals == 0 || n <= p.MaxProfessionals
}

// IsExclusive reports whether the plan carries the exclusive tier flag.
func (p Plan) IsExclusive() bool {
	return p.ID == PlanExclusive
}

// Catalog is a read-only plan lookup table.
type Catalog struct {
	plans map[PlanID]Plan
	order []PlanID
}

//go:embed plans.yaml
var defaultCatalogYAML []byte

var defaultCatalog = mustParseCatalog(defaultCatalogYAML)

// DefaultCatalog returns the built-in plan catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

type catalogFile struct {
	Plans []struct {
		ID               string            `yaml:"id"`
		DisplayName      string            `yaml:"display_name"`
		MaxProfessionals int               `yaml:"max_professionals"`
		FullMonthlyPrice string            `yaml:"full_monthly_price"`
		Prices           map[string]string `yaml:"prices"`
		Features         []string          `yaml:"features"`
	} `yaml:"plans"`
}

// ParseCatalog builds a catalog from its YAML definition. Every plan must
// price all three billing cycles.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}

	c := &Catalog{plans: make(map[PlanID]Plan, len(file.Plans))}
	for _, raw := range file.Plans {
		id := ParsePlanID(raw.ID)
		if id == "" {
			return nil, fmt.Errorf("plan catalog: plan without id")
		}
		if _, dup := c.plans[id]; dup {
			return nil, fmt.Errorf("plan catalog: duplicate plan %s", id)
		}

		full, err := decimal.NewFromString(raw.FullMonthlyPrice)
		if err != nil {
			return nil, fmt.Errorf("plan catalog: %s full_monthly_price: %w", id, err)
		}

		plan := Plan{
			ID:               id,
			DisplayName:      raw.DisplayName,
			Prices:           make(map[BillingCycle]decimal.Decimal, len(raw.Prices)),
			MaxProfessionals: raw.MaxProfessionals,
			FullMonthlyPrice: full,
			Features:         raw.Features,
		}
		for cycleName, priceText := range raw.Prices {
			cycle, err := ParseBillingCycle(cycleName)
			if err != nil {
				return nil, fmt.Errorf("plan catalog: %s: %w", id, err)
			}
			price, err := decimal.NewFromString(priceText)
			if err != nil {
				return nil, fmt.Errorf("plan catalog: %s %s price: %w", id, cycle, err)
			}
			plan.Prices[cycle] = price
		}
		for _, cycle := range []BillingCycle{CycleMonthly, CycleSemiannually, CycleAnnually} {
			if _, ok := plan.Prices[cycle]; !ok {
				return nil, fmt.Errorf("plan catalog: %s is missing a %s price", id, cycle)
			}
		}

		c.plans[id] = plan
		c.order = append(c.order, id)
	}
	return c, nil
}

func mustParseCatalog(data []byte) *Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the plan with the given id.
func (c *Catalog) Lookup(id PlanID) (Plan, error) {
	plan, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return plan, nil
}

// Price returns the list price of a plan for a billing cycle.
func (c *Catalog) Price(id PlanID, cycle BillingCycle) (decimal.Decimal, error) {
	plan, err := c.Lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	return plan.PriceFor(cycle)
}

// Plans lists the catalog in definition order.
func (c *Catalog) Plans() []Plan {
	plans := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		plans = append(plans, c.plans[id])
	}
	return plans
}

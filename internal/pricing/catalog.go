// Package pricing implements the LINE Official Account messaging cost model:
// the plan catalog, the monthly cost calculator, the plan advisor, and the
// budget inverter. Every function in this package is pure and safe for
// concurrent use; the catalog is immutable once constructed.
package pricing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"linecast/internal/types"
)

func init() {
	// Rates are rendered as JSON numbers (3.3) rather than strings ("3.3").
	decimal.MarshalJSONWithoutQuotes = true
}

// RateBand is a contiguous, inclusive volume range in which every message
// beyond the included allowance costs RatePerMessage. Min and Max are
// absolute monthly message counts (30001..50000), not offsets into the
// overage.
type RateBand struct {
	Min            int64           `json:"min" yaml:"min"`
	Max            int64           `json:"max" yaml:"max"`
	RatePerMessage decimal.Decimal `json:"ratePerMessage" yaml:"ratePerMessage"`
}

// Capacity returns the number of messages the band covers.
func (b RateBand) Capacity() int64 {
	return b.Max - b.Min + 1
}

// PricingPlan is a named tier with a fixed monthly fee and allowance.
type PricingPlan struct {
	ID               types.PlanID `json:"id" yaml:"id"`
	Name             string       `json:"name" yaml:"name"`
	MonthlyFee       int64        `json:"monthlyFee" yaml:"monthlyFee"`
	IncludedMessages int64        `json:"includedMessages" yaml:"includedMessages"`
	AllowsOverage    bool         `json:"allowsOverage" yaml:"allowsOverage"`
	MarginalRates    []RateBand   `json:"marginalRates,omitempty" yaml:"marginalRates,omitempty"`
}

// clone returns a deep copy so callers cannot mutate catalog-owned bands.
func (p PricingPlan) clone() PricingPlan {
	if p.MarginalRates != nil {
		bands := make([]RateBand, len(p.MarginalRates))
		copy(bands, p.MarginalRates)
		p.MarginalRates = bands
	}
	return p
}

// defaultPlans is the LINE Official Account price list (tax included, yen).
//
//	| Plan     | Fee    | Included | Overage                         |
//	|----------|--------|----------|---------------------------------|
//	| free     | 0      | 200      | not purchasable                 |
//	| light    | 5,500  | 5,000    | not purchasable                 |
//	| standard | 16,500 | 30,000   | 3.3 down to 2.42 per message    |
var defaultPlans = []PricingPlan{
	{
		ID:               types.PlanFree,
		Name:             "Free plan",
		MonthlyFee:       0,
		IncludedMessages: 200,
		AllowsOverage:    false,
	},
	{
		ID:               types.PlanLight,
		Name:             "Light plan",
		MonthlyFee:       5500,
		IncludedMessages: 5000,
		AllowsOverage:    false,
	},
	{
		ID:               types.PlanStandard,
		Name:             "Standard plan",
		MonthlyFee:       16500,
		IncludedMessages: 30000,
		AllowsOverage:    true,
		MarginalRates: []RateBand{
			{Min: 30001, Max: 50000, RatePerMessage: decimal.RequireFromString("3.3")},
			{Min: 50001, Max: 100000, RatePerMessage: decimal.RequireFromString("3.08")},
			{Min: 100001, Max: 200000, RatePerMessage: decimal.RequireFromString("2.86")},
			{Min: 200001, Max: 500000, RatePerMessage: decimal.RequireFromString("2.64")},
			{Min: 500001, Max: 1000000, RatePerMessage: decimal.RequireFromString("2.42")},
		},
	},
}

// defaultCatalog is built once at package initialization. The default table
// is known to be valid, so construction cannot fail.
var defaultCatalog = mustCatalog(defaultPlans)

// Catalog is an immutable, ordered set of pricing plans. Order matters: it is
// the tie-break order used by the plan advisor.
type Catalog struct {
	plans []PricingPlan
	index map[types.PlanID]int
}

// catalogFile is the on-disk shape of a catalog override.
type catalogFile struct {
	Plans []PricingPlan `json:"plans" yaml:"plans"`
}

// DefaultCatalog returns the built-in LINE price list.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// NewCatalog validates plans and returns a catalog that owns a private copy
// of them. Validation enforces:
//   - every ID belongs to the closed PlanID enumeration and appears once
//   - fees and allowances are non-negative
//   - overage plans carry at least one band; non-overage plans carry none
//   - bands start right after the allowance, are contiguous, strictly
//     increasing, and have positive rates
func NewCatalog(plans []PricingPlan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, catalogError("catalog must contain at least one plan")
	}

	c := &Catalog{
		plans: make([]PricingPlan, 0, len(plans)),
		index: make(map[types.PlanID]int, len(plans)),
	}

	for _, p := range plans {
		if err := validatePlan(p); err != nil {
			return nil, err
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, catalogError(fmt.Sprintf("duplicate plan id %q", p.ID))
		}
		c.index[p.ID] = len(c.plans)
		c.plans = append(c.plans, p.clone())
	}

	return c, nil
}

func mustCatalog(plans []PricingPlan) *Catalog {
	c, err := NewCatalog(plans)
	if err != nil {
		panic(err)
	}
	return c
}

func validatePlan(p PricingPlan) error {
	if !p.ID.IsValid() {
		return catalogError(fmt.Sprintf("unknown plan id %q", p.ID))
	}
	if p.Name == "" {
		return catalogError(fmt.Sprintf("plan %q has no name", p.ID))
	}
	if p.MonthlyFee < 0 || p.IncludedMessages < 0 {
		return catalogError(fmt.Sprintf("plan %q has a negative fee or allowance", p.ID))
	}
	if p.MonthlyFee > MaxMonthlyFee || p.IncludedMessages > MaxMonthlyMessages {
		return catalogError(fmt.Sprintf("plan %q has a fee or allowance above the supported maximum", p.ID))
	}

	if !p.AllowsOverage {
		if len(p.MarginalRates) > 0 {
			return catalogError(fmt.Sprintf("plan %q forbids overage but lists rate bands", p.ID))
		}
		return nil
	}

	if len(p.MarginalRates) == 0 {
		return catalogError(fmt.Sprintf("plan %q allows overage but lists no rate bands", p.ID))
	}

	next := p.IncludedMessages + 1
	for i, b := range p.MarginalRates {
		if b.Min != next {
			return catalogError(fmt.Sprintf("plan %q band %d starts at %d, want %d", p.ID, i, b.Min, next))
		}
		if b.Max < b.Min {
			return catalogError(fmt.Sprintf("plan %q band %d has max %d below min %d", p.ID, i, b.Max, b.Min))
		}
		if b.Max > MaxMonthlyMessages {
			return catalogError(fmt.Sprintf("plan %q band %d ends past %d messages", p.ID, i, MaxMonthlyMessages))
		}
		if !b.RatePerMessage.IsPositive() {
			return catalogError(fmt.Sprintf("plan %q band %d has a non-positive rate", p.ID, i))
		}
		if b.RatePerMessage.GreaterThan(MaxRatePerMessage) {
			return catalogError(fmt.Sprintf("plan %q band %d has a rate above ¥%s", p.ID, i, MaxRatePerMessage))
		}
		next = b.Max + 1
	}
	return nil
}

func catalogError(msg string) *types.AppError {
	return types.NewAppError(types.ErrCodeValidationInvalidCatalog, msg, nil)
}

// Plans returns a copy of every plan in catalog order.
func (c *Catalog) Plans() []PricingPlan {
	out := make([]PricingPlan, len(c.plans))
	for i, p := range c.plans {
		out[i] = p.clone()
	}
	return out
}

// Lookup returns the plan with the given ID. Unknown identifiers are an
// InvalidArgument condition, surfaced as validation_unknown_plan.
func (c *Catalog) Lookup(id types.PlanID) (PricingPlan, error) {
	i, ok := c.index[id]
	if !ok {
		return PricingPlan{}, types.NewAppErrorWithDetails(
			types.ErrCodeValidationUnknownPlan,
			fmt.Sprintf("unknown plan id %q", id),
			ErrInvalidArgument,
			map[string]any{"planId": string(id)},
		)
	}
	return c.plans[i].clone(), nil
}

// LoadCatalogFile reads a catalog override from a YAML or JSON file. The
// format is chosen by extension; .json files are parsed with the YAML
// decoder, which accepts JSON as a subset.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return ParseCatalog(raw, strings.ToLower(filepath.Ext(path)))
}

// ParseCatalog decodes a serialized catalog. ext is informational and only
// used in error messages.
func ParseCatalog(raw []byte, ext string) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidCatalog,
			fmt.Sprintf("malformed catalog (%s)", strings.TrimPrefix(ext, ".")),
			err,
		)
	}
	return NewCatalog(f.Plans)
}

// MarshalYAML renders the catalog in the same shape LoadCatalogFile reads.
func (c *Catalog) MarshalYAML() (any, error) {
	return catalogFile{Plans: c.Plans()}, nil
}

package pricing

import (
	"fmt"

	"linecast/internal/types"
)

// Volume thresholds that select the advisor's rationale sentence.
const (
	freeTierCeiling  = 200
	lightTierCeiling = 5000
)

// PlanSuggestion is the advisor's answer for one monthly volume.
type PlanSuggestion struct {
	Suggested       PricingPlan     `json:"suggested"`
	MonthlyMessages int64           `json:"monthlyMessages"`
	Calculations    []CostBreakdown `json:"calculations"`
	Reasoning       string          `json:"reasoning"`
}

// Advisor evaluates every plan of a catalog against a volume.
type Advisor struct {
	catalog *Catalog
}

// NewAdvisor returns an Advisor over catalog. A nil catalog selects the
// default LINE price list.
func NewAdvisor(catalog *Catalog) *Advisor {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Advisor{catalog: catalog}
}

// SuggestOptimalPlan prices monthlyMessages under the default catalog and
// returns the cheapest plan that can carry it.
func SuggestOptimalPlan(monthlyMessages int64) (PlanSuggestion, error) {
	return NewAdvisor(nil).Suggest(monthlyMessages)
}

// Suggest computes a breakdown for every plan, keeps the ones that can send,
// and selects the lowest TotalCost. Equal costs resolve to the plan listed
// first in the catalog. Calculations contains every breakdown, feasible or
// not, in catalog order.
func (a *Advisor) Suggest(monthlyMessages int64) (PlanSuggestion, error) {
	if err := checkVolume("monthlyMessages", monthlyMessages); err != nil {
		return PlanSuggestion{}, err
	}

	plans := a.catalog.Plans()
	calcs := make([]CostBreakdown, 0, len(plans))
	cheapest := -1

	for _, plan := range plans {
		b, err := CalculateMonthlyCost(monthlyMessages, plan)
		if err != nil {
			return PlanSuggestion{}, err
		}
		calcs = append(calcs, b)
		if !b.CanSend {
			continue
		}
		if cheapest < 0 || b.TotalCost < calcs[cheapest].TotalCost {
			cheapest = len(calcs) - 1
		}
	}

	if cheapest < 0 {
		return PlanSuggestion{}, ErrNoFeasiblePlan.WithDetails(map[string]any{
			"monthlyMessages": monthlyMessages,
		})
	}

	best := calcs[cheapest]
	return PlanSuggestion{
		Suggested:       best.Plan,
		MonthlyMessages: monthlyMessages,
		Calculations:    calcs,
		Reasoning:       reasoningFor(monthlyMessages, best),
	}, nil
}

// reasoningFor picks the rationale by volume threshold. When the threshold
// points at a plan other than the computed cheapest one (a custom catalog
// can cause this), the sentence names the computed plan instead.
func reasoningFor(monthly int64, best CostBreakdown) string {
	var expected types.PlanID
	switch {
	case monthly <= freeTierCeiling:
		expected = types.PlanFree
	case monthly <= lightTierCeiling:
		expected = types.PlanLight
	default:
		expected = types.PlanStandard
	}

	if expected != best.Plan.ID {
		return fmt.Sprintf("The %s is the cheapest plan that can carry %s messages per month (%s).",
			best.Plan.Name, formatCount(monthly), formatYen(best.TotalCost))
	}

	switch expected {
	case types.PlanFree:
		return "At 200 messages per month or fewer, the free plan is recommended."
	case types.PlanLight:
		return "The light plan offers the best cost performance for this volume."
	default:
		return fmt.Sprintf("At %s messages per month, the standard plan is the best fit.", formatCount(monthly))
	}
}

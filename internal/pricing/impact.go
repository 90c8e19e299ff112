package pricing

import "fmt"

// PlanImpact compares the monthly cost of a volume on two plans.
type PlanImpact struct {
	CurrentCost    CostBreakdown `json:"currentCost"`
	NewCost        CostBreakdown `json:"newCost"`
	Savings        int64         `json:"savings"`
	Recommendation string        `json:"recommendation"`
}

// AnalyzePlanImpact prices monthlyMessages on both plans. Savings is positive
// when moving to next is cheaper. Feasibility is reported through each
// breakdown's CanSend and is not folded into Savings.
func AnalyzePlanImpact(current, next PricingPlan, monthlyMessages int64) (PlanImpact, error) {
	cur, err := CalculateMonthlyCost(monthlyMessages, current)
	if err != nil {
		return PlanImpact{}, err
	}
	nxt, err := CalculateMonthlyCost(monthlyMessages, next)
	if err != nil {
		return PlanImpact{}, err
	}

	savings := cur.TotalCost - nxt.TotalCost

	var rec string
	switch {
	case savings > 0:
		rec = fmt.Sprintf("Switching to the %s saves %s per month.", next.Name, formatYen(savings))
	case savings < 0:
		rec = fmt.Sprintf("Staying on the %s is %s cheaper per month.", current.Name, formatYen(-savings))
	default:
		rec = "Both plans cost the same."
	}

	return PlanImpact{
		CurrentCost:    cur,
		NewCost:        nxt,
		Savings:        savings,
		Recommendation: rec,
	}, nil
}

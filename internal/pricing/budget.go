package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var half = decimal.RequireFromString("0.5")

// BudgetResult is the largest monthly volume a budget can buy on one plan.
type BudgetResult struct {
	Plan             PricingPlan     `json:"plan"`
	Budget           decimal.Decimal `json:"budget"`
	MaxMessages      int64           `json:"maxMessages"`
	BaseBudget       decimal.Decimal `json:"baseBudget"`
	AdditionalBudget decimal.Decimal `json:"additionalBudget"`
	EstimatedCost    int64           `json:"estimatedCost"`
	Recommendation   string          `json:"recommendation"`
}

// MaxMessagesWithBudget inverts CalculateMonthlyCost: it returns the largest
// volume m such that CalculateMonthlyCost(m, plan).TotalCost <= budget.
//
// A budget below the monthly fee is a normal result with MaxMessages=0.
// For overage plans the walk runs against the rounded total the calculator
// reports, so the message after MaxMessages always costs more than the
// budget. For plans without overage, MaxMessages is the allowance and the
// next message is blocked rather than priced.
//
// Budgets above MaxBudget are rejected. MaxMessages never exceeds
// MaxMonthlyMessages, even when the budget would buy more.
func MaxMessagesWithBudget(budget decimal.Decimal, plan PricingPlan) (BudgetResult, error) {
	if budget.IsNegative() {
		return BudgetResult{}, invalidArgument("budget", budget.String(), "budget must not be negative")
	}
	if budget.GreaterThan(MaxBudget) {
		return BudgetResult{}, invalidArgument("budget", budget.String(),
			fmt.Sprintf("budget must not exceed %s", formatYenDecimal(MaxBudget)))
	}

	fee := decimal.NewFromInt(plan.MonthlyFee)
	if budget.LessThan(fee) {
		return BudgetResult{
			Plan:             plan.clone(),
			Budget:           budget,
			MaxMessages:      0,
			BaseBudget:       budget,
			AdditionalBudget: decimal.Zero,
			Recommendation: fmt.Sprintf("A budget of %s does not cover the %s (%s per month).",
				formatYenDecimal(budget), plan.Name, formatYen(plan.MonthlyFee)),
		}, nil
	}

	additional := budget.Sub(fee)
	maxMessages := plan.IncludedMessages
	if plan.AllowsOverage {
		maxMessages += affordableOverage(additional, plan.MarginalRates, MaxMonthlyMessages-plan.IncludedMessages)
	}

	cost, err := CalculateMonthlyCost(maxMessages, plan)
	if err != nil {
		return BudgetResult{}, err
	}

	return BudgetResult{
		Plan:             plan.clone(),
		Budget:           budget,
		MaxMessages:      maxMessages,
		BaseBudget:       fee,
		AdditionalBudget: additional,
		EstimatedCost:    cost.TotalCost,
		Recommendation: fmt.Sprintf("A budget of %s allows up to %s messages per month on the %s.",
			formatYenDecimal(budget), formatCount(maxMessages), plan.Name),
	}, nil
}

// affordableOverage walks the bands with an exclusive ceiling on the exact
// overage cost. The calculator rounds the exact cost half away from zero, so
// round(exact) <= floor(additional) holds exactly when
// exact < floor(additional) + 0.5. The last band is open-ended, matching
// bandCost. The result never exceeds limit.
func affordableOverage(additional decimal.Decimal, bands []RateBand, limit int64) int64 {
	headroom := additional.Floor().Add(half)
	var total int64

	for i, band := range bands {
		if !headroom.IsPositive() || total >= limit {
			break
		}
		last := i == len(bands)-1

		bound := limit - total
		if !last {
			bound = min(bound, band.Capacity())
		}
		n := countBelow(headroom, band.RatePerMessage, bound)
		total += n
		headroom = headroom.Sub(band.RatePerMessage.Mul(decimal.NewFromInt(n)))

		if !last && n < band.Capacity() {
			break
		}
	}
	return total
}

// countBelow returns the largest n <= limit with n*rate strictly below
// ceiling. The quotient is clamped while still a decimal so IntPart never
// sees a value outside int64, then corrected with exact products because
// decimal division truncates at DivisionPrecision digits.
func countBelow(ceiling, rate decimal.Decimal, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	q := ceiling.Div(rate).Floor()
	if q.GreaterThan(decimal.NewFromInt(limit)) {
		q = decimal.NewFromInt(limit)
	}
	n := q.IntPart()
	for n > 0 && !rate.Mul(decimal.NewFromInt(n)).LessThan(ceiling) {
		n--
	}
	for n < limit && rate.Mul(decimal.NewFromInt(n+1)).LessThan(ceiling) {
		n++
	}
	return n
}

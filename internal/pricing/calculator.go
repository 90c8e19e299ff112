package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// warningThreshold is the share of the allowance above which an advisory
// warning is attached to a breakdown.
var warningThreshold = decimal.RequireFromString("0.8")

var hundred = decimal.NewFromInt(100)

// CostBreakdown is the derived cost of sending MessagesUsed messages in one
// month under Plan. It is never stored.
type CostBreakdown struct {
	Plan             PricingPlan     `json:"plan"`
	BaseCost         int64           `json:"baseCost"`
	AdditionalCost   int64           `json:"additionalCost"`
	TotalCost        int64           `json:"totalCost"`
	MessagesUsed     int64           `json:"messagesUsed"`
	MessagesIncluded int64           `json:"messagesIncluded"`
	OverageMessages  int64           `json:"overageMessages"`
	ExactAdditional  decimal.Decimal `json:"exactAdditionalCost"`
	CanSend          bool            `json:"canSend"`
	Warning          string          `json:"warning,omitempty"`
}

// UsagePercent returns MessagesUsed as a whole-number percentage of the
// allowance, as rendered on usage bars. A zero allowance reports 0.
func (b CostBreakdown) UsagePercent() int64 {
	return usagePercent(b.MessagesUsed, b.MessagesIncluded)
}

func usagePercent(used, included int64) int64 {
	if included <= 0 {
		return 0
	}
	return decimal.NewFromInt(used).
		Div(decimal.NewFromInt(included)).
		Mul(hundred).
		Round(0).
		IntPart()
}

// CalculateMonthlyCost prices messagesUsed messages under plan.
//
// Plans without overage never charge beyond the fee; exceeding the allowance
// yields CanSend=false with a blocking warning, which is a valid result and
// not an error. Plans with overage price the excess band by band in listed
// order. The last band is treated as open-ended: volume beyond its Max is
// billed at its rate, so the total is never under-priced.
//
// TotalCost is the fee plus the additional cost rounded to whole yen.
// Volumes above MaxMonthlyMessages are rejected with ErrInvalidArgument.
//
// The advisory threshold applies to every plan: an overage plan past 80% of
// its allowance still sends, but carries the percentage warning.
func CalculateMonthlyCost(messagesUsed int64, plan PricingPlan) (CostBreakdown, error) {
	if err := checkVolume("messagesUsed", messagesUsed); err != nil {
		return CostBreakdown{}, err
	}

	overage := max(0, messagesUsed-plan.IncludedMessages)

	b := CostBreakdown{
		Plan:             plan.clone(),
		BaseCost:         plan.MonthlyFee,
		MessagesUsed:     messagesUsed,
		MessagesIncluded: plan.IncludedMessages,
		OverageMessages:  overage,
		ExactAdditional:  decimal.Zero,
		CanSend:          true,
	}

	if !plan.AllowsOverage {
		switch {
		case messagesUsed > plan.IncludedMessages:
			b.CanSend = false
			b.Warning = fmt.Sprintf("%s caps at %s messages/month; overage cannot be sent.",
				plan.Name, formatCount(plan.IncludedMessages))
		case overThreshold(messagesUsed, plan.IncludedMessages):
			b.Warning = allowanceWarning(messagesUsed, plan.IncludedMessages)
		}
	} else {
		b.ExactAdditional = bandCost(overage, plan.MarginalRates)
		if overThreshold(messagesUsed, plan.IncludedMessages) {
			b.Warning = allowanceWarning(messagesUsed, plan.IncludedMessages)
		}
	}

	b.AdditionalCost = b.ExactAdditional.Round(0).IntPart()
	b.TotalCost = b.BaseCost + b.AdditionalCost
	return b, nil
}

// bandCost walks bands in order and returns the exact cost of overage
// messages.
func bandCost(overage int64, bands []RateBand) decimal.Decimal {
	cost := decimal.Zero
	remaining := overage
	for i, band := range bands {
		if remaining <= 0 {
			break
		}
		inBand := remaining
		if i < len(bands)-1 {
			inBand = min(remaining, band.Capacity())
		}
		cost = cost.Add(band.RatePerMessage.Mul(decimal.NewFromInt(inBand)))
		remaining -= inBand
	}
	return cost
}

func overThreshold(used, included int64) bool {
	if included <= 0 {
		return false
	}
	return decimal.NewFromInt(used).GreaterThan(decimal.NewFromInt(included).Mul(warningThreshold))
}

func allowanceWarning(used, included int64) string {
	return fmt.Sprintf("%d%% of monthly allowance used.", usagePercent(used, included))
}

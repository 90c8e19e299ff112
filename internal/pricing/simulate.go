package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"linecast/internal/types"
)

// WeeksPerMonth converts a weekly send schedule into a monthly volume.
const WeeksPerMonth = 4

// FrequencySimulation describes what a weekly broadcast schedule costs.
type FrequencySimulation struct {
	FriendsCount    int64           `json:"friendsCount"`
	WeeklyFrequency int64           `json:"weeklyFrequency"`
	WeeklyMessages  int64           `json:"weeklyMessages"`
	MonthlyMessages int64           `json:"monthlyMessages"`
	OptimalPlan     PricingPlan     `json:"optimalPlan"`
	MonthlyCost     int64           `json:"monthlyCost"`
	CostPerMessage  decimal.Decimal `json:"costPerMessage"`
	CostPerFriend   decimal.Decimal `json:"costPerFriend"`
	Reasoning       string          `json:"reasoning"`
}

// MessageCount is the number of billable messages one broadcast round
// produces: every recipient counts once per send. Products above
// MaxMonthlyMessages are rejected instead of wrapping.
func MessageCount(recipients, sends int64) (int64, error) {
	if recipients < 0 {
		return 0, invalidArgument("recipients", recipients, "recipients must not be negative")
	}
	if sends < 0 {
		return 0, invalidArgument("sends", sends, "sends must not be negative")
	}
	if recipients != 0 && sends > MaxMonthlyMessages/recipients {
		return 0, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidArgument,
			fmt.Sprintf("message count must not exceed %s", formatCount(MaxMonthlyMessages)),
			nil,
			map[string]any{"recipients": recipients, "sends": sends},
		)
	}
	return recipients * sends, nil
}

// SimulateFrequency prices a schedule of weeklyFrequency broadcasts to
// friendsCount friends under the default catalog.
func SimulateFrequency(friendsCount, weeklyFrequency int64) (FrequencySimulation, error) {
	return NewAdvisor(nil).Simulate(friendsCount, weeklyFrequency)
}

// Simulate prices a weekly schedule on the cheapest feasible plan. Per-unit
// costs are rounded to two decimals and are zero when their denominator is.
func (a *Advisor) Simulate(friendsCount, weeklyFrequency int64) (FrequencySimulation, error) {
	if friendsCount < 0 {
		return FrequencySimulation{}, invalidArgument("friendsCount", friendsCount, "friends count must not be negative")
	}
	if weeklyFrequency < 0 {
		return FrequencySimulation{}, invalidArgument("weeklyFrequency", weeklyFrequency, "weekly frequency must not be negative")
	}

	weekly, err := MessageCount(friendsCount, weeklyFrequency)
	if err != nil {
		return FrequencySimulation{}, scheduleTooLarge(friendsCount, weeklyFrequency)
	}
	monthly, err := MessageCount(weekly, WeeksPerMonth)
	if err != nil {
		return FrequencySimulation{}, scheduleTooLarge(friendsCount, weeklyFrequency)
	}

	suggestion, err := a.Suggest(monthly)
	if err != nil {
		return FrequencySimulation{}, err
	}

	var total int64
	for _, c := range suggestion.Calculations {
		if c.Plan.ID == suggestion.Suggested.ID {
			total = c.TotalCost
			break
		}
	}

	return FrequencySimulation{
		FriendsCount:    friendsCount,
		WeeklyFrequency: weeklyFrequency,
		WeeklyMessages:  weekly,
		MonthlyMessages: monthly,
		OptimalPlan:     suggestion.Suggested,
		MonthlyCost:     total,
		CostPerMessage:  perUnit(total, monthly),
		CostPerFriend:   perUnit(total, friendsCount),
		Reasoning:       suggestion.Reasoning,
	}, nil
}

func scheduleTooLarge(friendsCount, weeklyFrequency int64) *types.AppError {
	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidArgument,
		fmt.Sprintf("schedule exceeds %s messages per month", formatCount(MaxMonthlyMessages)),
		nil,
		map[string]any{"friendsCount": friendsCount, "weeklyFrequency": weeklyFrequency},
	)
}

func perUnit(total, units int64) decimal.Decimal {
	if units <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(units)).Round(2)
}

package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Input ceilings. Under them every total the engine produces fits in an int64
// and every walk finishes in a bounded number of steps: the largest possible
// total is MaxMonthlyFee + MaxMonthlyMessages*MaxRatePerMessage, about 1e18.
const (
	// MaxMonthlyMessages bounds every message volume the engine prices.
	MaxMonthlyMessages int64 = 1_000_000_000_000

	// MaxMonthlyFee bounds the fee of a catalog plan, in yen.
	MaxMonthlyFee int64 = 1_000_000_000_000
)

var (
	// MaxRatePerMessage bounds a catalog band rate, in yen.
	MaxRatePerMessage = decimal.NewFromInt(1_000_000)

	// MaxBudget bounds the budget MaxMessagesWithBudget accepts, in yen.
	MaxBudget = decimal.NewFromInt(1_000_000_000_000_000)
)

func checkVolume(field string, v int64) error {
	if v < 0 {
		return invalidArgument(field, v, "message volume must not be negative")
	}
	if v > MaxMonthlyMessages {
		return invalidArgument(field, v,
			fmt.Sprintf("message volume must not exceed %s", formatCount(MaxMonthlyMessages)))
	}
	return nil
}

package pricing

import "linecast/internal/types"

// Sentinel errors. Every error returned by this package is a *types.AppError
// that matches one of these with errors.Is.
var (
	// ErrInvalidArgument covers negative volumes, negative budgets, and
	// unknown plan identifiers.
	ErrInvalidArgument = types.NewAppError(types.ErrCodeValidationInvalidArgument, "invalid argument", nil)

	// ErrNoFeasiblePlan is returned by the advisor when every plan in the
	// catalog blocks the requested volume.
	ErrNoFeasiblePlan = types.NewAppError(types.ErrCodePricingNoFeasiblePlan, "no plan can carry the requested volume", nil)
)

func invalidArgument(field string, value any, msg string) *types.AppError {
	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidArgument,
		msg,
		nil,
		map[string]any{"field": field, "value": value},
	)
}

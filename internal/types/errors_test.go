package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies Error() renders "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationUnknownPlan,
		Message: `unknown plan id "gold"`,
	}

	expected := `validation_unknown_plan: unknown plan id "gold"`
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	appErr := NewAppError(ErrCodeInternalDB, "failed to load simulation", underlying)

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", appErr.Unwrap(), underlying)
	}
	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should reach the wrapped error")
	}
}

func TestAppErrorErrorsAs(t *testing.T) {
	appErr := NewAppError(ErrCodeNotFoundSimulation, "simulation not found", nil)
	wrapped := fmt.Errorf("handler failed: %w", appErr)

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeNotFoundSimulation {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeNotFoundSimulation)
	}
}

// TestAppErrorIsMatchesByCode checks sentinel comparison ignores message and
// details.
func TestAppErrorIsMatchesByCode(t *testing.T) {
	sentinel := NewAppError(ErrCodePricingNoFeasiblePlan, "no plan", nil)
	specific := NewAppErrorWithDetails(ErrCodePricingNoFeasiblePlan, "nothing carries 9000", nil,
		map[string]any{"monthlyMessages": 9000})
	other := NewAppError(ErrCodeValidationInvalidArgument, "no plan", nil)

	if !errors.Is(fmt.Errorf("wrap: %w", specific), sentinel) {
		t.Error("same code should match")
	}
	if errors.Is(other, sentinel) {
		t.Error("different code should not match")
	}
}

func TestWithDetailsCopies(t *testing.T) {
	base := NewAppErrorWithDetails(ErrCodeValidationInvalidArgument, "bad", nil, map[string]any{"field": "budget"})
	withMore := base.WithDetails(map[string]any{"value": -1})

	if _, ok := base.Details["value"]; ok {
		t.Error("WithDetails must not mutate the receiver")
	}
	if withMore.Details["field"] != "budget" || withMore.Details["value"] != -1 {
		t.Errorf("merged details = %v", withMore.Details)
	}
	if withMore.Code != base.Code || withMore.Message != base.Message {
		t.Error("code and message should be preserved")
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidArgument, http.StatusBadRequest},
		{ErrCodeValidationUnknownPlan, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidCatalog, http.StatusBadRequest},
		{ErrCodePricingNoFeasiblePlan, http.StatusUnprocessableEntity},
		{ErrCodeRateLimit, http.StatusTooManyRequests},
		{ErrCodeNotFoundSimulation, http.StatusNotFound},
		{ErrCodeNotFoundRoute, http.StatusNotFound},
		{ErrCodeFeatureNotConfigured, http.StatusServiceUnavailable},
		{ErrCodeUpstreamLine, http.StatusBadGateway},
		{ErrCodeUpstreamRateLimited, http.StatusBadGateway},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeInternalDB, http.StatusInternalServerError},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
			if got := NewAppError(tt.code, "x", nil).HTTPStatus(); got != tt.want {
				t.Errorf("AppError.HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlanIDIsValidKnownIDs(t *testing.T) {
	for _, id := range KnownPlanIDs {
		if !id.IsValid() {
			t.Errorf("%q should be valid", id)
		}
	}
	for _, id := range []PlanID{"", "premium", "Free"} {
		if id.IsValid() {
			t.Errorf("%q should not be valid", id)
		}
	}
}

package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"linecast/internal/types"
)

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validator wraps go-playground/validator with the cost API's custom tags:
//   - plan_id: the value is a known types.PlanID
//
// decimal.Decimal fields are validated as float64, so numeric tags such as
// gte=0 work on budgets.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator builds a validator that reports JSON field names.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("plan_id", validatePlanID); err != nil {
		// Registration only fails on an empty tag name.
		panic(fmt.Sprintf("registering plan_id validation: %v", err))
	}

	return &Validator{validate: v, logger: logger}
}

func validatePlanID(fl validator.FieldLevel) bool {
	return types.PlanID(fl.Field().String()).IsValid()
}

// ValidateStruct validates s and returns nil or a *types.AppError. The code
// is derived from the first failing tag; every failure is listed under the
// "validation_errors" detail.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request could not be validated", err)
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Code:    string(tagToErrorCode(fe.Tag())),
			Message: messageFor(fe),
		})
	}

	first := verrs[0]
	return types.NewAppErrorWithDetails(
		tagToErrorCode(first.Tag()),
		messageFor(first),
		err,
		map[string]any{"validation_errors": out},
	)
}

func tagToErrorCode(tag string) types.ErrorCode {
	switch tag {
	case "required":
		return types.ErrCodeValidationMissingField
	case "plan_id":
		return types.ErrCodeValidationUnknownPlan
	default:
		return types.ErrCodeValidationInvalidArgument
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "plan_id":
		return fmt.Sprintf("%s must be one of free, light, standard", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
	}
}

package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

var validate = validator.New()

// checkStruct runs struct tags through the validator and reports the first
// failing field as a *domain.ValidationError.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(lowerFirst(fe.Field()), describeTag(fe))
	}
	return domain.NewValidationError("", err.Error())
}

// checkVar validates a single value against tag.
func checkVar(field string, value any, tag, reason string) error {
	if err := validate.Var(value, tag); err != nil {
		return domain.NewValidationError(field, reason)
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed validation (" + fe.Tag() + ")"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// requireTitle rejects blank titles, which the struct tags cannot catch.
func requireTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return domain.NewValidationError("title", "is required")
	}
	return nil
}

package services

import (
	"errors"
	"fmt"
	"strings"

	apperrors "orderpro/common/errors"
	"orderpro/repository"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs struct tag validation and turns the first failure
// into a validation error naming the field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.Validation("Invalid %s: failed %s", lowerFirst(fe.Field()), describeTag(fe))
	}
	return apperrors.Validation("Invalid request: %v", err)
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// notFoundOr maps repository.ErrNotFound to a not-found error with msg and
// wraps anything else with op.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("%s", msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

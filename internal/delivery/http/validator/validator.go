// Package validator adapts go-playground/validator to echo.Validator.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/errors"

	playground "github.com/go-playground/validator/v10"
)

// Validator validates request structs through their `validate` tags.
type Validator struct {
	validate *playground.Validate
}

// New returns a validator reporting fields by their JSON names.
func New() *Validator {
	validate := playground.New(playground.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	return &Validator{validate: validate}
}

// Validate implements echo.Validator. Failures are ErrValidationFailed with one
// "field: rule" entry per violation in the details.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		details = append(details, describe(fieldErr))
	}

	return domainerrors.ErrValidationFailed.WithDetails(strings.Join(details, "; "))
}

func describe(fieldErr playground.FieldError) string {
	switch fieldErr.Tag() {
	case "required", "required_without":
		return fieldErr.Field() + ": is required"
	case "email":
		return fieldErr.Field() + ": must be a valid email"
	case "min":
		return fmt.Sprintf("%s: must be at least %s characters", fieldErr.Field(), fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s characters", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s: failed %s", fieldErr.Field(), fieldErr.Tag())
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}

	return name
}

// Package validation validates read-API query and body structs using
// struct tags (RAP, spec.md §6).
package validation

import (
	"fmt"

	"github.com/SkyAerope/Brainpile/pkg/core"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates s using its `validate` struct tags. Returns a
// core.ValidationErrors on failure.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return core.NewValidationError("body", "invalid input")
	}

	var coreErrors core.ValidationErrors
	for _, fieldErr := range validationErrors {
		coreErrors = append(coreErrors, core.NewValidationError(fieldErr.Field(), formatValidationError(fieldErr)))
	}
	return coreErrors
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	tag := err.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, err.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, err.Param())
	default:
		return fmt.Sprintf("%s failed validation on '%s'", field, tag)
	}
}

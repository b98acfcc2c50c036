package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"warrantyhub/internal/models"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports JSON field names and knows
// the action_type and channel enums.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("action_type", func(fl validator.FieldLevel) bool {
		return models.ActionType(fl.Field().String()).IsValid()
	})
	_ = validate.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		return models.Channel(fl.Field().String()).IsValid()
	})

	return validate
}

// ValidationMessage turns the first failed rule into a client-facing message.
func ValidationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err.Error()
	}

	fieldError := validationErrors[0]
	field := fieldError.Field()

	switch fieldError.Tag() {
	case "required":
		return field + " is required"
	case "uuid":
		return field + " must be a valid UUID"
	case "email":
		return field + " must be a valid email address"
	case "action_type", "channel", "oneof":
		return "Invalid " + field
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fieldError.Tag(), fieldError.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fieldError.Tag())
	}
}

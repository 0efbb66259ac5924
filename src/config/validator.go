package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("join_mode", validateJoinMode)
	v.RegisterValidation("log_level", validateLogLevel)

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration. The first failing field is
// reported as a ValidationError.
func (v *Validator) Validate(config *Config) error {
	return convert(v.validate.Struct(config))
}

// ValidateLocal validates everything except the API key, for commands
// that never contact the completion service.
func (v *Validator) ValidateLocal(config *Config) error {
	return convert(v.validate.StructExcept(config, "APIKey"))
}

func convert(err error) error {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return ValidationError{
			Field:   e.Field(),
			Message: message(e),
			Value:   e.Value(),
		}
	}
	return err
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		if e.Field() == "APIKey" {
			return "no API key configured (set API_KEY or MISTRAL_API_KEY)"
		}
		return "is required"
	case "url":
		return fmt.Sprintf("%q is not a valid URL", e.Value())
	}
	return fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value())
}

// validateJoinMode validates fragment join modes
func validateJoinMode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"space", "concat"}, value)
}

// validateLogLevel validates log level values
func validateLogLevel(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, value)
}

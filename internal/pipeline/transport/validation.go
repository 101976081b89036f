package transport

import (
	"fmt"

	"eclipse_backend/internal/pipeline/domain"
	"eclipse_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
)

// Validation tags for pipeline requests.
const (
	StatusTag = "pipeline_status"
	ActionTag = "pipeline_action"
)

// RegisterValidations adds the pipeline_status and pipeline_action tags to val.
func RegisterValidations(val *validator.Validator) error {
	if err := val.RegisterValidation(StatusTag, func(fl govalidator.FieldLevel) bool {
		_, ok := domain.ParseStatus(fl.Field().String())
		return ok
	}); err != nil {
		return fmt.Errorf("register %s validation: %w", StatusTag, err)
	}
	if err := val.RegisterValidation(ActionTag, func(fl govalidator.FieldLevel) bool {
		return domain.Action(fl.Field().String()).IsKnown()
	}); err != nil {
		return fmt.Errorf("register %s validation: %w", ActionTag, err)
	}
	return nil
}

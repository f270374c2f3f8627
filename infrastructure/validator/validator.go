package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func validateStruct(payload interface{}) *[]error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs := []error{err}
		return &errs
	}

	errs := make([]error, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		errs = append(errs, fmt.Errorf("%s failed validation on rule '%s'", fieldErr.Field(), fieldErr.Tag()))
	}
	return &errs
}

func validateField(value any, rules string) error {
	return validate.Var(value, rules)
}

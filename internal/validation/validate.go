// Package validation checks request payloads with struct tags.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/shelter-intake/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates value and returns a validation error naming every failed field
func Struct(value any) error {
	if err := validate.Struct(value); err != nil {
		return toValidationError(err)
	}
	return nil
}

// Var validates a single value against a tag such as "required,max=100"
func Var(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return types.NewValidationError("%s failed rule '%s'", field, ruleOf(verrs[0]))
		}
		return types.NewValidationError("%s: %v", field, err)
	}
	return nil
}

func toValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return types.NewValidationError("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed rule '%s'", fe.Field(), ruleOf(fe)))
	}
	return types.NewValidationError("%s", strings.Join(msgs, "; "))
}

func ruleOf(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

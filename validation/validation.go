// Package validation checks request payloads against their struct tags and
// reports every failing field as an apperror.Issue.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/starter-go/apperror"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names in issues, so they match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates s and returns one issue per failing field,
// or nil when s is valid.
func Struct(s any) []apperror.Issue {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []apperror.Issue{{Message: err.Error()}}
	}

	issues := make([]apperror.Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, apperror.Issue{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return issues
}

// Check is Struct wrapped as an error: nil when valid, otherwise an
// *apperror.AppError of type ValidationError.
func Check(s any) error {
	if issues := Struct(s); len(issues) > 0 {
		return apperror.NewValidationError(issues)
	}
	return nil
}

// message formats a single field validation error
func message(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, jsonName(fe))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// jsonName turns the Go field name of an eqfield parameter ("Password")
// into its lowerCamel JSON form ("password").
func jsonName(fe validator.FieldError) string {
	param := fe.Param()
	if param == "" {
		return "field"
	}
	return strings.ToLower(param[:1]) + param[1:]
}

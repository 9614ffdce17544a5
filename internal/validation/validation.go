// Package validation checks request payloads before they are sent to the API.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/scholardesk/pkg/api"
)

// phonePattern: '+' и 8-15 цифр после удаления пробелов, дефисов и скобок
var phonePattern = regexp.MustCompile(`^\+\d{8,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В сообщениях используем имена полей из JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("intl_phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(api.ScholarshipInput)
		if in.Deadline.IsZero() {
			sl.ReportError(in.Deadline, "deadline", "Deadline", "required", "")
		}
	}, api.ScholarshipInput{})

	return v
}

// FieldError is a single failed check
type FieldError struct {
	Field   string
	Message string
}

// Error collects all failed checks of one payload
type Error struct {
	Fields []FieldError
}

// Error joins field messages into one readable line
func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Field returns the message for the named field or ""
func (e *Error) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// Struct validates s by its `validate` tags
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "intl_phone":
		return fmt.Sprintf("%s must be in international format, starting with + and country code (e.g. +2348012345678)", field)
	}
	return fmt.Sprintf("%s validation failed on '%s' tag", field, fe.Tag())
}

// IsValidationError checks if err carries field errors
func IsValidationError(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

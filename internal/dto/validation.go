package dto

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
}

// fieldName reports fields by their json or form name.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// FieldErrors converts a binding or validation error into per-field messages.
// Errors that are not about a particular field are reported under "body".
func FieldErrors(err error) []FieldError {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve.Fields
	}

	var errs validator.ValidationErrors
	if stderrors.As(err, &errs) {
		out := make([]FieldError, 0, len(errs))
		for _, fe := range errs {
			out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
		}
		return out
	}

	return []FieldError{{Field: "body", Message: err.Error()}}
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("cannot exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("cannot exceed %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "alphanum":
		return "must only contain alphanumeric characters"
	case "gt":
		return "must be positive"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// checkOptional validates a present, non-null value against rules. A null
// value is accepted only when nullable.
func checkOptional[T any](ve *ValidationError, field string, o Optional[T], nullable bool, rules string) {
	if !o.Set {
		return
	}
	if o.Null {
		if !nullable {
			ve.add(field, "cannot be null")
		}
		return
	}
	if rules == "" {
		return
	}

	var errs validator.ValidationErrors
	if err := validate.Var(o.Value, rules); stderrors.As(err, &errs) {
		for _, fe := range errs {
			ve.add(field, message(fe))
		}
	}
}

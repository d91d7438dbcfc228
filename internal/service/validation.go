package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// inputValidator checks the `validate` tags on service inputs and domain
// documents before anything is written.
var inputValidator = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(JSONFieldName)
	return v
}

// JSONFieldName names struct fields by their JSON key in validation errors,
// so the reported field matches what clients send.
func JSONFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// validateStruct runs the tags on s and reports the first failure.
func validateStruct(s interface{}) error {
	if err := inputValidator.Struct(s); err != nil {
		return FromFieldErrors(err)
	}
	return nil
}

func validDate(s string) bool {
	return inputValidator.Var(s, "datetime="+dateLayout) == nil
}

// FromFieldErrors turns validator errors into a *ValidationError for the
// first failing field. Any other error is returned unchanged.
func FromFieldErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fieldPath(fe.Namespace()), Reason: reason(fe)}
}

// fieldPath drops the top-level type name and slice indexes:
// "Routine.exercises[2].order" becomes "exercises.order".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	var b strings.Builder
	inIndex := false
	for _, r := range namespace {
		switch {
		case r == '[':
			inIndex = true
		case r == ']':
			inIndex = false
		case !inIndex:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "length must be at least " + fe.Param()
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "length must be at most " + fe.Param()
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "email":
		return "must be a valid address"
	case "datetime":
		return "must be YYYY-MM-DD"
	}
	return "failed the " + fe.Tag() + " check"
}

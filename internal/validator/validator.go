// Package validator holds the shared go-playground validator instance and the
// custom tags used by expense, profile and auth forms.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"expensectl/internal/core"
)

var Validate *validator.Validate

var nonSpace = regexp.MustCompile(`\S`)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report json names ("oldPassword") instead of Go field names
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// Money validates as its cent count, so `gt=0` means "positive amount"
	Validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if m, ok := v.Interface().(core.Money); ok {
			return m.Cents
		}
		return nil
	}, core.Money{})

	// A string that is not empty and not only whitespace
	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonSpace.MatchString(fl.Field().String())
	})

	_ = Validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return core.Category(fl.Field().String()).Valid()
	})
}

// Struct validates v and converts the first failure into a core.ValidationError.
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %T: %w", v, err)
	}
	first := verrs[0]
	return core.Invalid(first.Field(), fieldError(first))
}

func fieldError(e validator.FieldError) error {
	switch e.Tag() {
	case "required", "notblank":
		if e.Field() == "title" {
			return core.ErrEmptyTitle
		}
		return fmt.Errorf("%s is required", e.Field())
	case "email":
		return fmt.Errorf("%s must be a valid email address", e.Field())
	case "category":
		return fmt.Errorf("%w %q", core.ErrInvalidCategory, e.Value())
	case "gt":
		if e.Field() == "amount" {
			return core.ErrInvalidAmount
		}
		return fmt.Errorf("%s must be greater than %s", e.Field(), e.Param())
	case "min":
		return fmt.Errorf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", e.Field(), e.Param())
	case "nefield":
		return fmt.Errorf("%s must differ from the current value", e.Field())
	default:
		return fmt.Errorf("%s is invalid", e.Field())
	}
}

package impl

import (
	"reflect"
	"strings"

	domainerrors "console/internal/domain/errors"
	"console/internal/errors"

	"github.com/go-playground/validator/v10"
)

// newValidator builds a validator that reports field names from json tags,
// so field errors line up with what the form actually displays.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// validateInput runs struct validation and converts the first violation into
// a FieldError with a message the form can show inline. Local violations
// never reach the backend.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if errors.As(err, &violations) && len(violations) > 0 {
		violation := violations[0]

		return domainerrors.NewFieldError(
			violation.Field(),
			domainerrors.ErrValidationFailed.WrapMessage(violationMessage(violation)),
		)
	}

	return domainerrors.ErrValidationFailed.WrapMessage(err.Error())
}

func violationMessage(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return violation.Field() + " is required"
	case "email":
		return "enter a valid email address"
	case "min":
		return violation.Field() + " must be at least " + violation.Param() + " characters"
	case "eqfield":
		return "passwords do not match"
	case "nefield":
		return "new password must differ from the current password"
	default:
		return violation.Field() + " is invalid"
	}
}

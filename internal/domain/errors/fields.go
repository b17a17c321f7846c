package errors

import "strings"

// FieldError attributes an error to a specific form field so the caller can
// surface it inline instead of as a generic banner.
type FieldError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError creates an error bound to a form field.
func NewFieldError(field string, err error) *FieldError {
	return &FieldError{Field: field, Err: err}
}

// FieldForMessage maps a server-reported message to the form field it most
// likely concerns. An empty result means no field could be identified.
func FieldForMessage(message string) string {
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "otp") || strings.Contains(lowered, "code"):
		return "otp"
	case strings.Contains(lowered, "current"):
		return "currentPassword"
	case strings.Contains(lowered, "incorrect") || strings.Contains(lowered, "wrong"):
		return "currentPassword"
	default:
		return ""
	}
}

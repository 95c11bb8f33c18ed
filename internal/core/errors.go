package core

import "errors"

var (
	ErrEmptyField    = errors.New("required field is empty")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrInvalidMethod = errors.New("invalid HTTP method")
)

// ValidationError describes why a model value is invalid.
// Kind is one of the sentinel errors above and is matched by errors.Is.
type ValidationError struct {
	Kind   error
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrEmptyField:
		return "Required field is empty: " + e.Field
	case ErrInvalidURL:
		return "Invalid URL: " + e.Detail
	case ErrInvalidMethod:
		return "Invalid HTTP method: " + e.Detail
	}
	if e.Field != "" {
		return "Validation error: " + e.Field + ": " + e.Detail
	}
	return "Validation error: " + e.Detail
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

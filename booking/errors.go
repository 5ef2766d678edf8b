package booking

import "fmt"

type ValidationKind int

const (
	EmptySelection ValidationKind = iota + 1
	MissingName
	InvalidEmail
	MissingShowtime
)

func (k ValidationKind) String() string {
	switch k {
	case EmptySelection:
		return "EmptySelection"
	case MissingName:
		return "MissingName"
	case InvalidEmail:
		return "InvalidEmail"
	case MissingShowtime:
		return "MissingShowtime"
	default:
		return "Unknown"
	}
}

// ValidationError is a client-side rejection. No request is sent when one
// is returned.
type ValidationError struct {
	Kind   ValidationKind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation error"
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is matches on Kind so callers can compare against the sentinels below.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrEmptySelection  = &ValidationError{Kind: EmptySelection, Field: "seats", Reason: "select at least one seat"}
	ErrMissingName     = &ValidationError{Kind: MissingName, Field: "user_name", Reason: "name is required"}
	ErrInvalidEmail    = &ValidationError{Kind: InvalidEmail, Field: "user_email", Reason: "enter an email like name@example.com"}
	ErrMissingShowtime = &ValidationError{Kind: MissingShowtime, Field: "showtime", Reason: "showtime is required"}
)

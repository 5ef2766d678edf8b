package model

import "fmt"

// ShapeError reports a response that decoded but does not match the schema
// the client relies on.
type ShapeError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	if e == nil {
		return "invalid payload"
	}
	return fmt.Sprintf("invalid %s payload: %s: %s", e.Entity, e.Field, e.Reason)
}

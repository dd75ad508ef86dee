package domain

import "fmt"

// ValidationError reports a missing or malformed health-metrics field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing field: %s", e.Field)
	}
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// UnsupportedConditionError reports a condition the scorer does not know.
type UnsupportedConditionError struct {
	Value string
}

func (e *UnsupportedConditionError) Error() string {
	return fmt.Sprintf("unsupported condition: %s", e.Value)
}

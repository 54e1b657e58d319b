package schema

import "strings"

// ValidationError reports every contract violation found in an input, not
// just the first. Callers must reject the whole request without side
// effects when one is returned.
type ValidationError struct {
	Violations []string
}

// Error joins all violations into one human-readable message.
func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidationError builds a ValidationError from one or more violations.
func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// violations accumulates contract violations during exhaustive validation.
type violations struct {
	msgs []string
}

func (v *violations) add(msg string) {
	v.msgs = append(v.msgs, msg)
}

// err returns nil when no violation was recorded.
func (v *violations) err() error {
	if len(v.msgs) == 0 {
		return nil
	}
	return &ValidationError{Violations: v.msgs}
}

package embedding

import "fmt"

// NotFoundError indicates no record exists with the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("embedding record not found: %s", e.ID)
}

// NewNotFoundError creates a NotFoundError for the given id.
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// PersistenceError indicates the document store failed during an operation.
// It wraps the underlying store error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps a store error with the failing operation name.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

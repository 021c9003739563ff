package store

import "errors"

// ErrNotFound is returned by read-only collaborator stores when a record
// does not exist.
var ErrNotFound = errors.New("record not found")

// PersistenceError marks a store operation that could not complete (I/O
// fault, storage exhaustion). Callers must surface it to the operator and
// never retry silently.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

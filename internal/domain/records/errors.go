package records

import "errors"

// ErrNotFound is returned by point lookups when no record carries the
// requested id.
var ErrNotFound = errors.New("patient record not found")

// ValidationError rejects malformed or out-of-range input. It is always
// client-caused and is surfaced verbatim, naming the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// StorageError reports that the persistence layer could not complete an
// operation. The wrapped cause is for logs only; response bodies never
// carry it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

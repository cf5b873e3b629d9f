package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports lists that cannot be paired element by element.
	ErrInvalidInput = errors.New("Lists must be of the same length.")
	// ErrNotFound reports an identifier no build has produced.
	ErrNotFound = errors.New("Payload not found.")
)

// StorageError wraps any failure of the underlying store. The core never
// retries these; callers treat them as server faults.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

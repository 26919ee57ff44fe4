package models

import (
	"errors"
	"fmt"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// StorageError is returned by the totals and state stores on connectivity or
// constraint failures. A session transition that hits it is aborted and the
// conversation state is left untouched.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// TransportError wraps a failed call to the messaging transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func NewTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// ClassifierError wraps a failed intent classification. Callers treat it as a
// negative answer.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier: %v", e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

package token

import "errors"

// ErrStorage matches every *StorageError via errors.Is.
var ErrStorage = errors.New("token storage failure")

// StorageError reports a failure of the underlying key-value medium.
type StorageError struct {
	Operation string // "get", "save", "clear"
	Key       string
	Cause     error
}

func (e *StorageError) Error() string {
	msg := "token store " + e.Operation
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

package application

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrDuplicateKey is returned when a write would break a uniqueness rule.
	ErrDuplicateKey = errors.New("application: duplicate key")
)

// DuplicateKeyError reports an attempt to insert a student whose RA is
// already registered. Its message is suitable for end users.
type DuplicateKeyError struct {
	RA string
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	return "RA já cadastrado!"
}

// Is makes errors.Is(err, ErrDuplicateKey) hold.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// SessionConflictError reports that a session already owns the natural key.
type SessionConflictError struct {
	Key SessionKey
}

// Error implements the error interface.
func (e *SessionConflictError) Error() string {
	return fmt.Sprintf("já existe uma chamada de %s para %s %s em %s", e.Key.Type, e.Key.Course, e.Key.Period, e.Key.Date)
}

// Is makes errors.Is(err, ErrDuplicateKey) hold.
func (e *SessionConflictError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

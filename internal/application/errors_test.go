package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_Add(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	base.add("first", "replaced")
	if len(base.FieldErrors) != 1 || base.FieldErrors["first"] != "replaced" {
		t.Fatalf("expected add to overwrite the field, got %+v", base.FieldErrors)
	}
}

func TestDuplicateKeyError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("insert: %w", &DuplicateKeyError{RA: "123"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected wrapped duplicate to match ErrDuplicateKey")
	}
	if got := (&DuplicateKeyError{RA: "123"}).Error(); got != "RA já cadastrado!" {
		t.Fatalf("unexpected message %q", got)
	}

	var dup *DuplicateKeyError
	if !errors.As(err, &dup) || dup.RA != "123" {
		t.Fatalf("expected errors.As to expose the RA, got %+v", dup)
	}
}

func TestSessionConflictError(t *testing.T) {
	t.Parallel()

	err := &SessionConflictError{Key: SessionKey{Date: "2024-01-10", Course: "DSM", Period: "1", Type: SessionSaida}}
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected conflict to match ErrDuplicateKey")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("conflict must not match ErrNotFound")
	}
	if got := err.Error(); got != "já existe uma chamada de Saída para DSM 1 em 2024-01-10" {
		t.Fatalf("unexpected message %q", got)
	}
}

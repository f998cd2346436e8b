// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. Use cases return these (usually wrapped with a
// domain-specific message) and the HTTP layer maps them to status codes.
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., a lost race on a unique key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusinessRule indicates an operation that would break an aggregate invariant.
	ErrBusinessRule = errors.New("business rule violation")

	// ErrConcurrencyConflict indicates an optimistic version check failed on update.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrTransport indicates the message bus could not accept or deliver a message.
	ErrTransport = errors.New("transport failure")

	// ErrMapping indicates an outbox row whose type has no integration contract.
	ErrMapping = errors.New("mapping failure")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// ValidationError carries per-field validation messages. It matches ErrInvalidInput
// through errors.Is so handlers can treat it like any other invalid input.
type ValidationError struct {
	Fields map[string]string
}

// Error renders fields as "field: message; ..." sorted by field name.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, key := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return strings.Join(parts, "; ")
}

// Unwrap makes ValidationError match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidStake        = errors.New("invalid stake")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTradeInProgress     = errors.New("trade already in progress")
	ErrAutoTradeActive     = errors.New("auto trade is active")
	ErrEngineClosed        = errors.New("engine closed")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrPersistenceParse    = errors.New("malformed persisted value")
)

// ValidationError represents a rejected trade placement.
// Message is the text surfaced to the user as the status line.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// PersistenceParseError represents a stored value that could not be decoded.
// It is recovered at load time by substituting the default.
type PersistenceParseError struct {
	Key string
	Raw string
	Err error
}

func (e *PersistenceParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("persistence error [%s] %q: %v", e.Key, e.Raw, e.Err)
	}
	return fmt.Sprintf("persistence error [%s] %q", e.Key, e.Raw)
}

func (e *PersistenceParseError) Unwrap() error {
	if e.Err == nil {
		return ErrPersistenceParse
	}
	return e.Err
}

// Is lets errors.Is(err, ErrPersistenceParse) match every PersistenceParseError.
func (e *PersistenceParseError) Is(target error) bool {
	return target == ErrPersistenceParse
}

// NewPersistenceParseError creates a new PersistenceParseError.
func NewPersistenceParseError(key, raw string, err error) *PersistenceParseError {
	return &PersistenceParseError{
		Key: key,
		Raw: raw,
		Err: err,
	}
}

// UserMessage returns the status text to show for err.
// ValidationErrors carry their own message; others fall back to Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

package core

import (
	"errors"
	"fmt"
)

// ValidationError reports a request that is missing or has a malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CollaboratorError is a failure reported by the persistence collaborator.
// Its message is meant to reach the caller unchanged.
type CollaboratorError struct {
	Op     string
	Status int // HTTP status when the collaborator is remote, 0 otherwise
	Err    error
}

func (e *CollaboratorError) Error() string {
	return e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// TransportError means the collaborator could not be reached at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Retryable reports whether repeating the call could succeed: transport
// failures and server-side collaborator failures qualify.
func Retryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce.Status == 0 || ce.Status >= 500
	}
	return false
}

package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("already processed")

	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("access denied. admin only")

	ErrDonationNotFound     = fmt.Errorf("donation %w", ErrNotFound)
	ErrPaymentNotFound      = fmt.Errorf("payment %w", ErrNotFound)
	ErrPhotoNotFound        = fmt.Errorf("photo %w", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration %w", ErrNotFound)
	ErrProgramNotFound      = fmt.Errorf("program %w", ErrNotFound)
)

// ValidationError is returned for user-correctable input problems. Field
// names the offending input using its wire name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DependencyError wraps a failure of an external collaborator (database,
// object storage, mail, payment processor).
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

const (
	DependencyDatabase = "database"
	DependencyStorage  = "storage"
	DependencyMail     = "mail"
	DependencyStripe   = "stripe"
)

func NewDependencyError(dependency string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Err: err}
}

func IsDependency(err error, dependency string) bool {
	var de *DependencyError
	if !errors.As(err, &de) {
		return false
	}
	return de.Dependency == dependency
}

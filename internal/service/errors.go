// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"

	"github.com/planbook/planbook/internal/repository"
	"github.com/planbook/planbook/internal/validation"
)

// Service errors. Every error returned by a service matches one of these
// with errors.Is, or is unexpected.
var (
	ErrInvalidInput       = validation.ErrInvalidInput
	ErrWeakCredential     = validation.ErrWeakCredential
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEntity    = errors.New("duplicate entity")
	ErrPersistence        = errors.New("persistence failure")
)

// Error is a domain error carrying a message safe to show to clients.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Is reports whether target is the sentinel kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func duplicate(message string) error {
	return &Error{Kind: ErrDuplicateEntity, Message: message}
}

func persistence(op string, err error) error {
	return &Error{Kind: ErrPersistence, Message: "failed to " + op, Err: err}
}

// storeError translates a storage error for the entity named what.
// Validation errors raised while mutating a row pass through unchanged.
func storeError(what, op string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrWeakCredential):
		return err
	case errors.Is(err, repository.ErrExpenseNotFound),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrUsernameExists):
		return duplicate("username already exists")
	case errors.Is(err, repository.ErrEmailExists):
		return duplicate("email already exists")
	default:
		return persistence(op, err)
	}
}

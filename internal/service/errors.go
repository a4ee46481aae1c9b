package service

import (
	"errors"
	"fmt"

	"github.com/aleckzsalas-29/itsm2/internal/database"
)

// Error classes. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

// Error is a classified failure whose message can be shown to clients
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

// lookup classifies a store error for a single-record read
func lookup(err error, missing string) error {
	if errors.Is(err, database.ErrNotFound) {
		return newError(ErrNotFound, "%s", missing)
	}
	return err
}

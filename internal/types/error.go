package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so the route boundary can pick a status
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindForbidden  ErrorKind = "forbidden"
	KindConflict   ErrorKind = "conflict"
	KindDuplicate  ErrorKind = "duplicate"
	KindNotFound   ErrorKind = "not_found"
	KindDatabase   ErrorKind = "database"
)

type CustomError struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Err     error     `json:"-"`
}

func (e *CustomError) Error() string {
	if e.Kind != "" && e.Code == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func newKind(kind ErrorKind, format string, args ...any) *CustomError {
	return &CustomError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError reports missing or malformed input
func NewValidationError(format string, args ...any) *CustomError {
	return newKind(KindValidation, format, args...)
}

// NewForbiddenError reports an operation the data model never allows
func NewForbiddenError(format string, args ...any) *CustomError {
	return newKind(KindForbidden, format, args...)
}

// NewConflictError reports an operation blocked by dependent rows
func NewConflictError(format string, args ...any) *CustomError {
	return newKind(KindConflict, format, args...)
}

// NewDuplicateError reports a unique key collision
func NewDuplicateError(format string, args ...any) *CustomError {
	return newKind(KindDuplicate, format, args...)
}

// NewNotFoundError reports a missing id
func NewNotFoundError(format string, args ...any) *CustomError {
	return newKind(KindNotFound, format, args...)
}

// WrapDatabaseError tags a driver or query failure. A nil err stays nil and
// an already kinded error is returned unchanged.
func WrapDatabaseError(err error, op string) error {
	if err == nil {
		return nil
	}
	var ce *CustomError
	if errors.As(err, &ce) && ce.Kind != "" {
		return err
	}
	return &CustomError{Kind: KindDatabase, Message: fmt.Sprintf("%s: %v", op, err), Type: op, Err: err}
}

// KindOf returns the kind of err, or "" when err is not a kinded error
func KindOf(err error) ErrorKind {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

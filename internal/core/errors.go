package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for callers that need to react programmatically.
type ErrorKind string

const (
	// KindValidation marks caller-fixable failures: bad input or a broken business rule.
	KindValidation ErrorKind = "validation"
	// KindNotFound marks a referenced entity that does not exist within the tenant.
	KindNotFound ErrorKind = "not_found"
	// KindConflict marks a write that lost a race with another writer.
	KindConflict ErrorKind = "conflict"
	// KindInternal is everything else, typically storage failures.
	KindInternal ErrorKind = "internal"
)

// Business-rule sentinels. They are wrapped in *Error so errors.Is works on them
// while the message shown to users stays specific.
var (
	ErrNoProductsSelected  = errors.New("no products selected")
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrOrderLocked         = errors.New("order is locked")
	ErrNothingToInvoice    = errors.New("nothing to invoice")
	ErrInvoiceExists       = errors.New("invoice already exists")
	ErrOrderHasNoProducts  = errors.New("cannot invoice an order with no products")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidPeriod       = errors.New("invalid billing period")
	ErrConcurrentInvoicing = errors.New("orders were invoiced concurrently")
)

// Error is the error type returned by core services for every non-internal failure.
type Error struct {
	Kind    ErrorKind
	Message string
	// Field names the offending input, if any.
	Field string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationErrorf builds a KindValidation error wrapping sentinel.
func ValidationErrorf(sentinel error, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...), Err: sentinel}
}

// FieldError builds a KindValidation error for a single input field.
func FieldError(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundErrorf builds a KindNotFound error.
func NotFoundErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ConflictErrorf builds a KindConflict error wrapping sentinel.
func ConflictErrorf(sentinel error, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Err: sentinel}
}

// KindOf reports the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a KindValidation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

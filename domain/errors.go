package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can render feedback and decide
// whether to retry.
type ErrorKind string

const (
	KindValidation           ErrorKind = "VALIDATION"
	KindInsufficientFunds    ErrorKind = "INSUFFICIENT_FUNDS"
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindUnauthorized         ErrorKind = "UNAUTHORIZED"
	KindForbidden            ErrorKind = "FORBIDDEN"
	KindConflict             ErrorKind = "CONFLICT"
	KindInapplicableTierList ErrorKind = "INAPPLICABLE_TIER_LIST"
	KindTransientStore       ErrorKind = "TRANSIENT_STORE_FAILURE"
	KindInternal             ErrorKind = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to the user, Err
// carries the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// for every not-found failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrInsufficientFunds    = &Error{Kind: KindInsufficientFunds}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrConflict             = &Error{Kind: KindConflict}
	ErrInapplicableTierList = &Error{Kind: KindInapplicableTierList}
	ErrTransientStore       = &Error{Kind: KindTransientStore}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError reports malformed input detected before any mutation
func NewValidationError(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// NewInsufficientFundsError reports a balance or point total below the required amount
func NewInsufficientFundsError(format string, args ...any) *Error {
	return newError(KindInsufficientFunds, format, args...)
}

// NewNotFoundError reports a missing gift, tier, profile or user
func NewNotFoundError(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// NewUnauthorizedError reports a missing identity
func NewUnauthorizedError(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

// NewForbiddenError reports an identity without the required role or ownership
func NewForbiddenError(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

// NewConflictError reports a duplicate unique key
func NewConflictError(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// NewInapplicableTierListError reports an empty tier catalog
func NewInapplicableTierListError(format string, args ...any) *Error {
	return newError(KindInapplicableTierList, format, args...)
}

// NewTransientStoreError wraps a timeout or lost connection
func NewTransientStoreError(err error) *Error {
	return &Error{Kind: KindTransientStore, Message: "the store is temporarily unavailable, please retry", Err: err}
}

// NewInternalError wraps an unexpected failure
func NewInternalError(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// UserMessage returns text suitable for the caller
func UserMessage(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return "something went wrong, please try again later"
}

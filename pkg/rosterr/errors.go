// Package rosterr defines the typed error kinds shared across the roster
// core (spec §7). Only Kind Internal is meant to be treated as fatal by
// callers; every other kind is a structured, expected outcome.
package rosterr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	NotFound            Kind = "NOT_FOUND"
	Conflict            Kind = "CONFLICT"
	PreconditionFailed  Kind = "PRECONDITION_FAILED"
	Cancelled           Kind = "CANCELLED"
	Internal            Kind = "INTERNAL"
)

// Error wraps an underlying cause with a classification kind so callers
// can branch with errors.As without string-matching messages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return newf(NotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return newf(Conflict, format, args...)
}

func PreconditionFailedf(format string, args ...interface{}) *Error {
	return newf(PreconditionFailed, format, args...)
}

func Internalf(format string, args ...interface{}) *Error {
	return newf(Internal, format, args...)
}

// KindOf extracts the Kind of err, defaulting to Internal for errors
// that were never classified (e.g. raw storage driver errors).
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return Internal
}

// Is reports whether err was classified with the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

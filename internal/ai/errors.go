package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures that are reported to callers as data.
type ErrorKind string

const (
	KindEmptyResponse     ErrorKind = "EmptyOracleResponse"
	KindMalformedJSON     ErrorKind = "MalformedJson"
	KindMalformedList     ErrorKind = "MalformedList"
	KindOracleUnavailable ErrorKind = "OracleUnavailable"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error. msg is optional context, err the underlying cause.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of a classified error, or an empty kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ClassifyOracleError maps an error returned by Oracle.Complete to a classified error.
// Anything that is not an empty response counts as the oracle being unavailable.
func ClassifyOracleError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, ErrEmptyResponse) {
		return NewError(KindEmptyResponse, "", err)
	}

	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrOracleUnavailable) {
		return NewError(KindOracleUnavailable, "deadline exceeded", err)
	}

	return NewError(KindOracleUnavailable, "", err)
}

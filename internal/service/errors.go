package service

import (
	"errors"
	"fmt"
)

// Kind classifies a relay failure.
type Kind int

const (
	KindInvalidMethod Kind = iota + 1
	KindInvalidVariables
	KindTransport
	KindBodyDecode
	KindSerialization
)

func (k Kind) String() string {
	switch k {
	case KindInvalidMethod:
		return "invalid_method"
	case KindInvalidVariables:
		return "invalid_variables"
	case KindTransport:
		return "transport"
	case KindBodyDecode:
		return "body_decode"
	case KindSerialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// Error is returned by every relay and GraphQL operation. Its message is the
// caller-facing text; Err holds the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, prefix string, err error) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf("%s: %v", prefix, err), Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

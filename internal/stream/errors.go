package stream

import (
	"errors"
	"fmt"
)

// ConnectErrorKind classifies connection failures
type ConnectErrorKind string

const (
	ConnectTimeout          ConnectErrorKind = "timeout"
	ConnectAuthMissing      ConnectErrorKind = "auth_missing"
	ConnectTransportFailure ConnectErrorKind = "transport_failure"
)

// ConnectError is a typed connection failure. Nothing reconnects on its
// own; the caller decides whether to dial again.
type ConnectError struct {
	Kind ConnectErrorKind
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connect: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("connect: %s", e.Kind)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ConnectErrKind extracts the ConnectErrorKind from err, or "" when err is
// not a ConnectError
func ConnectErrKind(err error) ConnectErrorKind {
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

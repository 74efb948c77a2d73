package session

import (
	"errors"
	"fmt"
	"io/fs"
)

// SessionErrorKind classifies capture-side session failures
type SessionErrorKind string

const (
	CaptureDeviceUnavailable SessionErrorKind = "capture_device_unavailable"
	PermissionDenied         SessionErrorKind = "permission_denied"
)

// SessionError is a typed capture failure
type SessionError struct {
	Kind SessionErrorKind
	Err  error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("session: %s", e.Kind)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// SessionErrKind extracts the SessionErrorKind from err, or "" when err is
// not a SessionError
func SessionErrKind(err error) SessionErrorKind {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// classifyCaptureError maps filesystem failures from an audio source onto
// the session error taxonomy. Other errors pass through untouched.
func classifyCaptureError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return &SessionError{Kind: CaptureDeviceUnavailable, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &SessionError{Kind: PermissionDenied, Err: err}
	default:
		return err
	}
}

package relay

import (
	"errors"
	"fmt"
)

// ProxyErrorKind classifies relay failures
type ProxyErrorKind string

const (
	UpstreamAuthMissing      ProxyErrorKind = "upstream_auth_missing"
	UpstreamConnectFailed    ProxyErrorKind = "upstream_connect_failed"
	UpstreamClosedAbnormally ProxyErrorKind = "upstream_closed_abnormally"
)

// ProxyError is a typed relay failure
type ProxyError struct {
	Kind ProxyErrorKind
	Err  error
}

func (e *ProxyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("relay: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("relay: %s", e.Kind)
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}

// ProxyErrKind extracts the ProxyErrorKind from err, or "" when err is not
// a ProxyError
func ProxyErrKind(err error) ProxyErrorKind {
	var pe *ProxyError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

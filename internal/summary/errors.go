package summary

import (
	"errors"
	"fmt"
)

// ErrSummaryInFlight is returned by ForceSummary when a request is already
// running; requests never overlap
var ErrSummaryInFlight = errors.New("summarization already in progress")

// SummarizeErrorKind classifies summarization failures
type SummarizeErrorKind string

const (
	ErrKindTimeout         SummarizeErrorKind = "timeout"
	ErrKindUpstreamFailure SummarizeErrorKind = "upstream_failure"
	ErrKindInvalidInput    SummarizeErrorKind = "invalid_input"
)

// SummarizeError is a typed summarization failure surfaced to callers.
// Requests are never retried automatically; the caller decides.
type SummarizeError struct {
	Kind SummarizeErrorKind
	Err  error
}

func (e *SummarizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("summarize: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("summarize: %s", e.Kind)
}

func (e *SummarizeError) Unwrap() error {
	return e.Err
}

// ErrorKind extracts the SummarizeErrorKind from err, or "" when err is not
// a SummarizeError
func ErrorKind(err error) SummarizeErrorKind {
	var se *SummarizeError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsTimeout reports whether err is a summarization timeout
func IsTimeout(err error) bool {
	return ErrorKind(err) == ErrKindTimeout
}

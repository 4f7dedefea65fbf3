package models

import (
	"errors"
	"fmt"
)

// ErrNoQuarterDetected signals detection ambiguity: the classification
// collaborator returned an empty or unparseable quarter label. Treated as
// "no change" by the pipeline; the cycle ends quietly.
var ErrNoQuarterDetected = errors.New("no quarter label detected")

// TransientError marks a failure that is expected to clear on retry, such
// as a network timeout, rate limit, or temporary service unavailability.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable for the named operation.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ContentError marks a per-document failure that must not be retried:
// insufficient extracted text, an empty or undersized generated summary,
// or an unsupported file. It fails only the affected document.
type ContentError struct {
	Reason string
	Err    error
}

func (e *ContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// ContentFailure builds a non-retryable content error.
func ContentFailure(reason string) error {
	return &ContentError{Reason: reason}
}

// IsContentError reports whether err is a content failure.
func IsContentError(err error) bool {
	var ce *ContentError
	return errors.As(err, &ce)
}

// FatalError marks a startup configuration problem (missing credentials,
// missing required paths). The process must not start partially.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string {
	return e.Reason
}

// Fatal builds a startup-aborting error.
func Fatal(format string, args ...any) error {
	return &FatalError{Reason: fmt.Sprintf(format, args...)}
}

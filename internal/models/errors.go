package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownJob is returned when a progress or cancel request names a
	// job identifier no adapter recognizes.
	ErrUnknownJob = errors.New("unknown job")

	// ErrCancelled marks an explicit abort of an in-flight transfer. It is
	// distinct from a transport timeout.
	ErrCancelled = errors.New("upload cancelled")

	// ErrCancellationUnsupported is returned by adapters that cannot abort
	// an in-flight transfer. The limitation is surfaced, never swallowed.
	ErrCancellationUnsupported = errors.New("cancellation not supported by this adapter")
)

// EnvelopeError reports a malformed or unexpected backend response shape.
type EnvelopeError struct {
	Reason string
	Err    error
}

func (e *EnvelopeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed backend envelope: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed backend envelope: %s", e.Reason)
}

func (e *EnvelopeError) Unwrap() error {
	return e.Err
}

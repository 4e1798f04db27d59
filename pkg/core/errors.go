package core

import (
	"context"
	"errors"
	"fmt"
)

// RemoteAccessError wraps a query or transport failure surfaced from a
// metadata source. Cache state is left at its last-known-good snapshot when
// this error is returned.
type RemoteAccessError struct {
	Scope Scope
	Err   error
}

func (e *RemoteAccessError) Error() string {
	return fmt.Sprintf("remote access failed for %s: %v", e.Scope, e.Err)
}

func (e *RemoteAccessError) Unwrap() error { return e.Err }

// CancelledError reports an operation aborted by the caller's context.
// It is not a failure: cache state is unchanged and the pre-cancellation
// snapshot remains valid.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("operation cancelled: %v", e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

// NotFoundError reports that a requested object is absent after a load was
// guaranteed. Distinct from "cache empty": the listing was consulted and the
// identity is not in it.
type NotFoundError struct {
	Kind Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsCancelled reports whether err stems from context cancellation.
func IsCancelled(err error) bool {
	var ce *CancelledError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

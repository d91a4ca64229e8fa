// Package errs defines the engine-wide error kinds. Callers classify
// failures with errors.Is against these sentinels rather than matching
// concrete types; wrapping sites add context with fmt.Errorf and %w.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedID reports a composite ID that could not be built or
	// parsed. Always recoverable: skip the item, never crash a batch.
	ErrMalformedID = errors.New("malformed composite id")

	// ErrNotFound reports a remote GET that returned no such resource.
	// For settings documents this is an expected state, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrWriteFailed reports a local transactional write that failed and
	// was rolled back.
	ErrWriteFailed = errors.New("local write failed")

	// ErrRemoteUnavailable reports a network failure, rate limit, or 5xx
	// from a remote collaborator.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrInvalidResponse reports remote data that failed to parse or
	// validate. Retried like ErrRemoteUnavailable but logged distinctly.
	ErrInvalidResponse = errors.New("invalid remote response")
)

// MalformedID wraps ErrMalformedID with the offending input.
func MalformedID(input string) error {
	return fmt.Errorf("%w: %q", ErrMalformedID, input)
}

// WriteFailed wraps a failed local write, preserving the cause for
// errors.Is checks on both sentinels.
func WriteFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrWriteFailed, err)
}

// FromStatus maps an HTTP-style status code from a remote collaborator to
// an error kind. A zero or negative code means the request never reached
// the server (network failure).
func FromStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 404:
		return ErrNotFound
	case code == 429:
		return fmt.Errorf("%w: rate limited", ErrRemoteUnavailable)
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: status %d", ErrInvalidResponse, code)
	case code >= 500:
		return fmt.Errorf("%w: status %d", ErrRemoteUnavailable, code)
	default:
		return fmt.Errorf("%w: network failure", ErrRemoteUnavailable)
	}
}

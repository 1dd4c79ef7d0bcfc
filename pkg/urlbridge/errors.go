package urlbridge

import "errors"

var (
	// ErrCapacityExceeded is the denial reason when every endpoint slot is taken.
	ErrCapacityExceeded = errors.New("urlbridge: endpoint capacity exceeded")
	// ErrSecureUnavailable is the denial reason for secure allocations when no
	// HTTPS transport is configured.
	ErrSecureUnavailable = errors.New("urlbridge: secure transport not configured")
	// ErrTokenInUse is the denial reason when the token source repeats a live token.
	ErrTokenInUse = errors.New("urlbridge: token already allocated")
	// ErrEndpointNotFound reports an address or token that is not (or no longer) allocated.
	ErrEndpointNotFound = errors.New("urlbridge: endpoint not found")
	// ErrRequestNotFound reports a request id that was never delivered, was
	// already taken, timed out, or lost its endpoint.
	ErrRequestNotFound = errors.New("urlbridge: request not found")
)

// Package services implements the gated content delivery engine: membership
// verification against the configured channel requirements, content key
// resolution, single-item and series delivery, and the handoff to deferred
// deletion. This file centralizes common service-level error values so they
// can be consistently returned by service methods and checked by callers.
//
// These errors are internal taxonomy; translation into user-facing chat
// messages happens inside the delivery engine at the point of failure, so
// callers only decide whether to log or retry, never what to tell the user.
package services

import "errors"

var (
	// ErrContentNotFound indicates the requested content key has no record.
	// The user has already been told the file does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrStoreUnavailable indicates the store could not be reached or
	// failed; distinct from ErrContentNotFound in both logs and user
	// messaging. The user has already been informed generically.
	ErrStoreUnavailable = errors.New("content store unavailable")

	// ErrSendFailed indicates the transport rejected the delivery send.
	ErrSendFailed = errors.New("delivery send failed")

	// ErrSeriesCycle indicates a series expansion encountered a member key
	// already visited in the same expansion; the branch was abandoned.
	ErrSeriesCycle = errors.New("series cycle detected")
)

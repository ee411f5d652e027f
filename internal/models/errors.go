package models

import "fmt"

// ValidationError indicates malformed or inconsistent input (missing required
// field, offering an item the requester doesn't own, empty message body).
// Surfaced to the caller immediately; never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NewValidationError creates a ValidationError with a formatted reason.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// AuthorizationError indicates the actor is not a party to the resource
// (wrong sender, wrong owner/requester for a transition, private item access).
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Reason
}

func NewAuthorizationError(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError indicates the request's current status does not
// permit the attempted edge. CurrentStatus carries the status observed at the
// time of failure so clients can refresh their view.
type InvalidTransitionError struct {
	CurrentStatus RequestStatus
	Target        RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot move request from %q to %q", e.CurrentStatus, e.Target)
}

// ClosedThreadError indicates a message was posted to a thread whose parent
// request is no longer open (declined/cancelled/completed threads are
// read-only).
type ClosedThreadError struct {
	Status RequestStatus
}

func (e *ClosedThreadError) Error() string {
	return fmt.Sprintf("thread is closed: request status is %q", e.Status)
}

// OrphanedReferenceError indicates the requested or offered item was deleted
// after the request was created.
type OrphanedReferenceError struct {
	ItemID string
}

func (e *OrphanedReferenceError) Error() string {
	return fmt.Sprintf("item %s referenced by this request no longer exists", e.ItemID)
}

// UpstreamUnavailableError indicates an external collaborator (AI proxy,
// weather, object storage) failed. Propagated as a user-visible "try again";
// never retried automatically and never corrupts catalog or request state.
type UpstreamUnavailableError struct {
	Upstream string
	Err      error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Upstream, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

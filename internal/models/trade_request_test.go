package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRequest(status RequestStatus) *TradeRequest {
	return &TradeRequest{
		ID:              "req-1",
		RequesterID:     "alice",
		OwnerID:         "bob",
		RequestedItemID: "item-1",
		Type:            RequestTypeBorrow,
		Status:          status,
	}
}

func TestCheckTransition_OwnerAccepts(t *testing.T) {
	r := newRequest(StatusPending)
	assert.NoError(t, r.CheckTransition("bob", StatusAccepted))
}

func TestCheckTransition_OwnerDeclines(t *testing.T) {
	r := newRequest(StatusPending)
	assert.NoError(t, r.CheckTransition("bob", StatusDeclined))
}

func TestCheckTransition_RequesterCancels(t *testing.T) {
	r := newRequest(StatusPending)
	assert.NoError(t, r.CheckTransition("alice", StatusCancelled))
}

func TestCheckTransition_RequesterCannotAcceptOwnRequest(t *testing.T) {
	r := newRequest(StatusPending)
	err := r.CheckTransition("alice", StatusAccepted)
	var authzErr *AuthorizationError
	assert.ErrorAs(t, err, &authzErr)
}

func TestCheckTransition_OwnerCannotCancel(t *testing.T) {
	r := newRequest(StatusPending)
	err := r.CheckTransition("bob", StatusCancelled)
	var authzErr *AuthorizationError
	assert.ErrorAs(t, err, &authzErr)
}

func TestCheckTransition_EitherPartyCompletes(t *testing.T) {
	assert.NoError(t, newRequest(StatusAccepted).CheckTransition("alice", StatusCompleted))
	assert.NoError(t, newRequest(StatusAccepted).CheckTransition("bob", StatusCompleted))
}

func TestCheckTransition_NoCancelAfterAccept(t *testing.T) {
	// Once accepted, neither side can back out via cancel. The missing edge
	// is reported before any role distinction.
	for _, actor := range []string{"alice", "bob"} {
		err := newRequest(StatusAccepted).CheckTransition(actor, StatusCancelled)
		var transitionErr *InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr, "actor %s", actor)
		assert.Equal(t, StatusAccepted, transitionErr.CurrentStatus)
	}
}

func TestCheckTransition_TerminalStatesAreFrozen(t *testing.T) {
	targets := []RequestStatus{StatusPending, StatusAccepted, StatusDeclined, StatusCompleted, StatusCancelled}
	for _, from := range []RequestStatus{StatusDeclined, StatusCompleted, StatusCancelled} {
		for _, to := range targets {
			err := newRequest(from).CheckTransition("bob", to)
			var transitionErr *InvalidTransitionError
			assert.ErrorAs(t, err, &transitionErr, "%s -> %s", from, to)
		}
	}
}

func TestCheckTransition_OutsiderAlwaysForbidden(t *testing.T) {
	// A non-party gets an authorization failure even for edges that don't
	// exist, so the state machine leaks nothing.
	for _, status := range []RequestStatus{StatusPending, StatusAccepted, StatusCompleted} {
		err := newRequest(status).CheckTransition("mallory", StatusCancelled)
		var authzErr *AuthorizationError
		assert.ErrorAs(t, err, &authzErr, "status %s", status)
	}
}

func TestCheckTransition_NoCompleteFromPending(t *testing.T) {
	err := newRequest(StatusPending).CheckTransition("bob", StatusCompleted)
	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestThreadOpen(t *testing.T) {
	assert.True(t, newRequest(StatusPending).ThreadOpen())
	assert.True(t, newRequest(StatusAccepted).ThreadOpen())
	assert.False(t, newRequest(StatusDeclined).ThreadOpen())
	assert.False(t, newRequest(StatusCancelled).ThreadOpen())
	assert.False(t, newRequest(StatusCompleted).ThreadOpen())
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusAccepted.Terminal())
	assert.True(t, StatusDeclined.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
}

func TestRoleOf(t *testing.T) {
	r := newRequest(StatusPending)
	assert.Equal(t, RoleRequester, r.RoleOf("alice"))
	assert.Equal(t, RoleOwner, r.RoleOf("bob"))
	assert.Equal(t, RoleNone, r.RoleOf("mallory"))
}

func TestEdgeExists(t *testing.T) {
	assert.True(t, EdgeExists(StatusPending, StatusAccepted))
	assert.True(t, EdgeExists(StatusAccepted, StatusCompleted))
	assert.False(t, EdgeExists(StatusAccepted, StatusCancelled))
	assert.False(t, EdgeExists(StatusDeclined, StatusPending))
}

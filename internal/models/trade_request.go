package models

import (
	"time"
)

// RequestType discriminates trade proposals (item-for-item) from borrows.
type RequestType string

const (
	RequestTypeTrade  RequestType = "trade"
	RequestTypeBorrow RequestType = "borrow"
)

// RequestStatus is the lifecycle state of a TradeRequest.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusDeclined  RequestStatus = "declined"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// MeetOrShip records the agreed exchange method. Informational only.
type MeetOrShip string

const (
	MeetupExchange MeetOrShip = "meetup"
	ShipExchange   MeetOrShip = "ship"
)

// ActorRole identifies which side of a request a user is on.
type ActorRole int

const (
	RoleNone ActorRole = iota
	RoleRequester
	RoleOwner
)

// TradeRequest is a single trade/borrow proposal between a requester and an
// item's owner. Accepting a trade does not transfer item ownership; the
// request is a negotiation record, not a transactional transfer.
type TradeRequest struct {
	ID          string      `bson:"_id" json:"id"`
	RequesterID string      `bson:"requester_id" json:"requester_id"`
	OwnerID     string      `bson:"owner_id" json:"owner_id"`

	RequestedItemID string `bson:"requested_item_id" json:"requested_item_id"`
	// OfferedItemID is set iff Type == trade; the item must belong to the
	// requester and be trade-flagged at creation time.
	OfferedItemID string `bson:"offered_item_id,omitempty" json:"offered_item_id,omitempty"`

	Type       RequestType   `bson:"type" json:"type"` // Immutable after creation
	Status     RequestStatus `bson:"status" json:"status"`
	MeetOrShip MeetOrShip    `bson:"meet_or_ship" json:"meet_or_ship"`
	Message    string        `bson:"message,omitempty" json:"message,omitempty"` // Seed text, also copied into the thread

	CreatedAt time.Time `bson:"created_at" json:"created_at"` // Immutable ordering key
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RoleOf returns the actor's role on this request.
func (r *TradeRequest) RoleOf(userID string) ActorRole {
	switch userID {
	case r.RequesterID:
		return RoleRequester
	case r.OwnerID:
		return RoleOwner
	}
	return RoleNone
}

// IsParty reports whether userID is one of the request's two parties.
func (r *TradeRequest) IsParty(userID string) bool {
	return r.RoleOf(userID) != RoleNone
}

// ThreadOpen reports whether the messaging thread still accepts posts.
// Declined, cancelled and completed threads are read-only.
func (r *TradeRequest) ThreadOpen() bool {
	return r.Status == StatusPending || r.Status == StatusAccepted
}

// Terminal reports whether no further transition can leave the status.
func (s RequestStatus) Terminal() bool {
	return s == StatusDeclined || s == StatusCancelled || s == StatusCompleted
}

// transitionEdges maps each permitted edge to the role allowed to drive it.
// completed is reachable from accepted by either party.
var transitionEdges = map[RequestStatus]map[RequestStatus][]ActorRole{
	StatusPending: {
		StatusAccepted:  {RoleOwner},
		StatusDeclined:  {RoleOwner},
		StatusCancelled: {RoleRequester},
	},
	StatusAccepted: {
		StatusCompleted: {RoleRequester, RoleOwner},
	},
}

// EdgeExists reports whether any actor may move a request from one status to
// another, regardless of role.
func EdgeExists(from, to RequestStatus) bool {
	_, ok := transitionEdges[from][to]
	return ok
}

// AllowedRoles returns the roles permitted to drive the given edge, or nil if
// the edge does not exist.
func AllowedRoles(from, to RequestStatus) []ActorRole {
	return transitionEdges[from][to]
}

// CheckTransition validates that the actor may move this request to target.
// Role is checked before the edge so that an outsider (or the wrong party)
// always gets AuthorizationError rather than learning about the state machine.
func (r *TradeRequest) CheckTransition(actorID string, target RequestStatus) error {
	role := r.RoleOf(actorID)
	if role == RoleNone {
		return NewAuthorizationError("user %s is not a party to request %s", actorID, r.ID)
	}
	roles, ok := transitionEdges[r.Status][target]
	if !ok {
		return &InvalidTransitionError{CurrentStatus: r.Status, Target: target}
	}
	for _, allowed := range roles {
		if role == allowed {
			return nil
		}
	}
	return NewAuthorizationError("role not permitted to move request %s to %q", r.ID, target)
}
